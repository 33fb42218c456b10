package odds

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTeamName folds case, strips accents and collapses whitespace so
// "Atlético Mineiro" and "atletico  mineiro" compare equal
func NormalizeTeamName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// SameTeam reports whether two provider names refer to the same team
func SameTeam(a, b string) bool {
	return NormalizeTeamName(a) == NormalizeTeamName(b)
}

// NameDistance is the smallest edit distance between the shorter normalised
// name and any window of the same length in the longer one, so "flamengo" is
// 0 away from "CR Flamengo". An empty name is as far as the other is long.
func NameDistance(a, b string) int {
	short, long := []rune(NormalizeTeamName(a)), []rune(NormalizeTeamName(b))
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return len(long)
	}
	best := len(short)
	for i := 0; i+len(short) <= len(long); i++ {
		if d := levenshtein(short, long[i:i+len(short)]); d < best {
			best = d
		}
		if best == 0 {
			break
		}
	}
	return best
}

func levenshtein(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}
	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}
