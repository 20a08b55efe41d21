// Package matching implements the fuzzy matching engine: per-field
// similarity functions, the hard-filtered weighted scorer, and the
// best-match selector.
package matching

import (
	"math"
	"strings"
)

// TextSimilarity computes a token-overlap similarity in [0,1] between
// two already-normalized strings (Dice coefficient over whitespace
// tokens). "corolla" vs "corolla xei" scores 2/3.
func TextSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ta := strings.Fields(a)
	tb := strings.Fields(b)

	set := make(map[string]int, len(ta))
	for _, tok := range ta {
		set[tok]++
	}

	var common int
	for _, tok := range tb {
		if set[tok] > 0 {
			set[tok]--
			common++
		}
	}

	return float64(2*common) / float64(len(ta)+len(tb))
}

// PlateSimilarity compares two canonical plates: 1.0 for exact, 0.9 for
// a single-character difference (one typo or a re-registered digit),
// 0 otherwise.
func PlateSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if levenshtein(a, b) == 1 {
		return 0.9
	}
	return 0
}

// YearSimilarity gives full credit for equal years and partial credit
// for a one-year gap. The partial branch is unreachable through the
// scorer's hard filter, which requires exact equality; it exists for
// callers comparing years outside the filter.
func YearSimilarity(a, b int) float64 {
	switch diff := a - b; {
	case diff == 0:
		return 1
	case diff == 1 || diff == -1:
		return 0.5
	default:
		return 0
	}
}

// NumericSimilarity maps the relative difference between two values to
// [0,1] on a linear curve calibrated so that a relative difference of
// exactly tol scores simAtTol. The relative difference is taken against
// the larger magnitude.
func NumericSimilarity(a, b, tol, simAtTol float64) float64 {
	if tol <= 0 {
		if a == b {
			return 1
		}
		return 0
	}

	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return 1 // both zero
	}
	diff := math.Abs(a-b) / larger

	sim := 1 - diff*(1-simAtTol)/tol
	if sim < 0 {
		return 0
	}
	return sim
}

// levenshtein computes the edit distance between two short strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
