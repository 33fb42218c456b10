package odds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Optional is a number that may be undefined. The zero value is undefined.
type Optional struct {
	value   float64
	defined bool
}

// Some wraps a defined value
func Some(v float64) Optional {
	return Optional{value: v, defined: true}
}

// None is the undefined value
func None() Optional {
	return Optional{}
}

// Get returns the value and whether it is defined
func (o Optional) Get() (float64, bool) {
	return o.value, o.defined
}

// Defined reports whether the value is present
func (o Optional) Defined() bool {
	return o.defined
}

// OrElse returns the value, or def when undefined
func (o Optional) OrElse(def float64) float64 {
	if !o.defined {
		return def
	}
	return o.value
}

func (o Optional) String() string {
	if !o.defined {
		return "n/a"
	}
	return decimal.NewFromFloat(o.value).StringFixed(2)
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.defined {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// infinitySymbol is how an unbounded odd is rendered
const infinitySymbol = "∞"

// Odd is a fair decimal odd. A zero probability has no finite odd and is
// represented as Infinite rather than a number.
type Odd struct {
	value    float64
	infinite bool
}

// Finite wraps a finite decimal odd
func Finite(v float64) Odd {
	return Odd{value: v}
}

// Infinite is the odd of an outcome with zero probability
func Infinite() Odd {
	return Odd{infinite: true}
}

// FairOdd is the reciprocal of p, Infinite when p is zero
func FairOdd(p float64) Odd {
	return ratioOdd(1, p)
}

// ratioOdd is num/den as an odd, Infinite when den is zero
func ratioOdd(num, den float64) Odd {
	if den <= 0 {
		return Infinite()
	}
	return Finite(num / den)
}

// Value returns the decimal odd and false when it is infinite
func (o Odd) Value() (float64, bool) {
	if o.infinite {
		return math.Inf(1), false
	}
	return o.value, true
}

// IsInfinite reports whether the odd is unbounded
func (o Odd) IsInfinite() bool {
	return o.infinite
}

func (o Odd) String() string {
	if o.infinite {
		return infinitySymbol
	}
	return decimal.NewFromFloat(o.value).StringFixed(2)
}

// MarshalJSON renders finite odds as a number rounded to two decimals
func (o Odd) MarshalJSON() ([]byte, error) {
	if o.infinite {
		return json.Marshal(infinitySymbol)
	}
	return json.Marshal(Round2(o.value))
}

func (o *Odd) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != infinitySymbol {
			return fmt.Errorf("%w: odd %q", ErrInvalidInput, s)
		}
		*o = Infinite()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Finite(v)
	return nil
}

// Round2 rounds half to even to two decimal places
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds half to even to the given number of places. Ties are taken
// on the shortest decimal form of v, so Round2(2.965) is 2.96.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}
