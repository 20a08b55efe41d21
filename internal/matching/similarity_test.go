package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "toyota", "toyota", 1.0},
		{"disjoint", "toyota", "ford", 0.0},
		{"partial overlap", "corolla", "corolla xei", 2.0 / 3.0},
		{"both multiword", "ford focus titanium", "ford focus", 0.8},
		{"empty left", "", "toyota", 0.0},
		{"empty right", "toyota", "", 0.0},
		{"repeated tokens count once each", "gol gol", "gol", 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TextSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestPlateSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, PlateSimilarity("AB123CD", "AB123CD"))
	assert.Equal(t, 0.9, PlateSimilarity("AB123CD", "AB123CE"), "one edit apart")
	assert.Equal(t, 0.0, PlateSimilarity("AB123CD", "ZZ999XX"))
	assert.Equal(t, 0.0, PlateSimilarity("", "AB123CD"), "absent plate never matches")
}

func TestYearSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, YearSimilarity(2021, 2021))
	assert.Equal(t, 0.5, YearSimilarity(2021, 2022))
	assert.Equal(t, 0.5, YearSimilarity(2022, 2021))
	assert.Equal(t, 0.0, YearSimilarity(2021, 2023))
}

func TestNumericSimilarity(t *testing.T) {
	// Curve calibrated so that a relative diff of exactly tol scores simAtTol.
	assert.InDelta(t, 1.0, NumericSimilarity(30000, 30000, 0.15, 0.8), 1e-9)
	assert.InDelta(t, 0.8, NumericSimilarity(85000, 100000, 0.15, 0.8), 1e-9)
	assert.InDelta(t, 0.6, NumericSimilarity(80000, 100000, 0.20, 0.6), 1e-9)
	assert.Equal(t, 0.0, NumericSimilarity(10000, 100000, 0.15, 0.8), "far apart floors at zero")
	assert.Equal(t, 1.0, NumericSimilarity(0, 0, 0.15, 0.8), "both zero are identical")
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 1, levenshtein("abc", "abd"))
	assert.Equal(t, 1, levenshtein("abc", "ab"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 2, levenshtein("ab", "ba"))
}
