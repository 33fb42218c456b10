package odds

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// MinMatches is the smallest sample that any market or interval is
// computed from
const MinMatches = 5

// lineStep is the granularity of supported lines (x.0, x.25, x.5, x.75)
const lineStep = 0.25

// PoissonPMF is P[X == k] for X ~ Poisson(lambda)
func PoissonPMF(k int, lambda float64) float64 {
	if k < 0 {
		return 0
	}
	if lambda == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	return distuv.Poisson{Lambda: lambda}.Prob(float64(k))
}

// PoissonCDF is P[X <= k] for X ~ Poisson(lambda)
func PoissonCDF(k int, lambda float64) float64 {
	if k < 0 {
		return 0
	}
	if lambda == 0 {
		return 1
	}
	return clamp01(distuv.Poisson{Lambda: lambda}.CDF(float64(k)))
}

// over is P[X > k]
func over(k int, lambda float64) float64 {
	return clamp01(1 - PoissonCDF(k, lambda))
}

// ClassifyLine reports how a line settles, rejecting lines that are not
// positive multiples of a quarter
func ClassifyLine(line float64) (LineKind, error) {
	if math.IsNaN(line) || math.IsInf(line, 0) || line <= 0 {
		return "", fmt.Errorf("%w: line %v must be positive", ErrInvalidInput, line)
	}
	quarters := line / lineStep
	if math.Abs(quarters-math.Round(quarters)) > 1e-9 {
		return "", fmt.Errorf("%w: line %v is not a multiple of %v", ErrInvalidInput, line, lineStep)
	}
	switch int(math.Round(quarters)) % 4 {
	case 0:
		return WholeLine, nil
	case 1:
		return QuarterLowLine, nil
	case 2:
		return HalfLine, nil
	default:
		return QuarterHighLine, nil
	}
}

// FairOdds prices the over/under market on line for a Poisson(lambda) count.
// A zero lambda is valid and puts all mass on zero, so every over has
// probability 0 and an infinite odd.
func FairOdds(lambda, line float64) (OddsEntry, error) {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda < 0 {
		return OddsEntry{}, fmt.Errorf("%w: lambda %v must be a non-negative number", ErrInvalidInput, lambda)
	}
	kind, err := ClassifyLine(line)
	if err != nil {
		return OddsEntry{}, err
	}
	base := int(math.Floor(line))

	switch kind {
	case HalfLine:
		under := PoissonCDF(base, lambda)
		return OddsEntry{
			Line:      line,
			Kind:      kind,
			ProbOver:  1 - under,
			ProbUnder: under,
			OddOver:   FairOdd(1 - under),
			OddUnder:  FairOdd(under),
		}, nil
	case WholeLine:
		return wholeLine(lambda, base), nil
	case QuarterLowLine:
		return quarterLow(lambda, base), nil
	default:
		return quarterHigh(lambda, base), nil
	}
}

// wholeLine prices line n where X == n returns the stake
func wholeLine(lambda float64, n int) OddsEntry {
	push := PoissonPMF(n, lambda)
	overStrict := over(n, lambda)
	underStrict := PoissonCDF(n-1, lambda)
	settled := 1 - push

	e := OddsEntry{
		Line:     float64(n),
		Kind:     WholeLine,
		ProbPush: push,
		OddOver:  ratioOdd(settled, overStrict),
		OddUnder: ratioOdd(settled, underStrict),
	}
	if settled > 0 {
		e.ProbOver = overStrict / settled
		e.ProbUnder = 1 - e.ProbOver
	}
	return e
}

// quarterLow prices n.25: half the stake on n, half on n.5.
// Over wins fully on X > n and loses half on X == n.
// Under wins fully on X < n and wins half on X == n.
func quarterLow(lambda float64, n int) OddsEntry {
	atN := PoissonPMF(n, lambda)
	overWin := over(n, lambda)
	underWin := PoissonCDF(n-1, lambda)
	return quarterEntry(float64(n)+0.25, QuarterLowLine, overWin, underWin, atN, true)
}

// quarterHigh prices n.75: half the stake on n.5, half on n+1.
// Over wins fully on X > n+1 and wins half on X == n+1.
// Under wins fully on X <= n and loses half on X == n+1.
func quarterHigh(lambda float64, n int) OddsEntry {
	atNext := PoissonPMF(n+1, lambda)
	overWin := over(n+1, lambda)
	underWin := PoissonCDF(n, lambda)
	return quarterEntry(float64(n)+0.75, QuarterHighLine, overWin, underWin, atNext, false)
}

// quarterEntry builds a quarter line market. split is the probability of the
// outcome settled half won / half lost; overLosesHalf says which side loses.
func quarterEntry(line float64, kind LineKind, overWin, underWin, split float64, overLosesHalf bool) OddsEntry {
	halfLoss := func(win, split float64) (Odd, float64) {
		// (1 - 0.5*P[half_loss]) / P[full_win]
		den := 1 - 0.5*split
		return ratioOdd(den, win), win / den
	}
	halfWin := func(win, split float64) (Odd, float64) {
		// (1 - 0.5*P[half_win]) / (P[full_win] + 0.5*P[half_win])
		den := 1 - 0.5*split
		return ratioOdd(den, win+0.5*split), (win + 0.5*split) / den
	}

	e := OddsEntry{Line: line, Kind: kind}
	if overLosesHalf {
		e.OddOver, e.ProbOver = halfLoss(overWin, split)
		e.OddUnder, e.ProbUnder = halfWin(underWin, split)
	} else {
		e.OddOver, e.ProbOver = halfWin(overWin, split)
		e.OddUnder, e.ProbUnder = halfLoss(underWin, split)
	}
	e.ProbOver = clamp01(e.ProbOver)
	e.ProbUnder = clamp01(e.ProbUnder)
	return e
}

// OddsTable prices every line for the same lambda
func OddsTable(lambda float64, lines []float64) ([]OddsEntry, error) {
	out := make([]OddsEntry, 0, len(lines))
	for _, l := range lines {
		e, err := FairOdds(lambda, l)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// OddsForRow prices counter for the entity behind row. It returns false when
// the sample is below MinMatches or the rate is undefined.
func OddsForRow(row RateRow, counter string, lines []float64) ([]OddsEntry, bool, error) {
	if row.MatchesPlayed < MinMatches {
		return nil, false, nil
	}
	lambda, ok := row.Rate(counter).Get()
	if !ok {
		return nil, false, nil
	}
	table, err := OddsTable(lambda, lines)
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

// OddsForSeries prices the mean of a raw per-match series, gated on its length
func OddsForSeries(series []float64, lines []float64) ([]OddsEntry, bool, error) {
	if len(series) < MinMatches {
		return nil, false, nil
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	table, err := OddsTable(sum/float64(len(series)), lines)
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
