package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/motorgrid/lotsync/internal/config"
)

// DefaultConfig returns a config.MatcherConfig with the standard
// weights and thresholds. Field weights sum to 1.0; the plate bonus is
// additive on top.
func DefaultConfig() config.MatcherConfig {
	return config.MatcherConfig{
		// Weights (sum = 1.0 across scored fields).
		BrandWeight:   0.15,
		ModelWeight:   0.20,
		YearWeight:    0.15,
		MileageWeight: 0.20,
		PriceWeight:   0.20,
		ColorWeight:   0.05,
		VersionWeight: 0.05,
		PlateBonus:    0.25,

		// Hard filters.
		MinBrandSimilarity:   0.70,
		MinModelSimilarity:   0.60,
		MinMileageSimilarity: 0.80,
		MinPriceSimilarity:   0.60,

		// Acceptance and tiers.
		AcceptScore: 0.60,
		HighScore:   0.80,
		MediumScore: 0.65,
		LowScore:    0.50,

		// Tolerances as a fraction of the larger value.
		MileageTolerance: 0.15,
		PriceTolerance:   0.20,

		BaseCurrency: "ARS",
	}
}

// ValidateConfig checks that a MatcherConfig is internally consistent.
func ValidateConfig(c config.MatcherConfig) error {
	var errs []string

	weights := map[string]float64{
		"brand_weight":   c.BrandWeight,
		"model_weight":   c.ModelWeight,
		"year_weight":    c.YearWeight,
		"mileage_weight": c.MileageWeight,
		"price_weight":   c.PriceWeight,
		"color_weight":   c.ColorWeight,
		"version_weight": c.VersionWeight,
	}
	var sum float64
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("field weights should sum to 1.0, got %.2f", sum))
	}
	if c.PlateBonus < 0 {
		errs = append(errs, "plate_bonus must be >= 0")
	}

	for name, v := range map[string]float64{
		"min_brand_similarity":   c.MinBrandSimilarity,
		"min_model_similarity":   c.MinModelSimilarity,
		"min_mileage_similarity": c.MinMileageSimilarity,
		"min_price_similarity":   c.MinPriceSimilarity,
		"accept_score":           c.AcceptScore,
		"high_score":             c.HighScore,
		"medium_score":           c.MediumScore,
		"low_score":              c.LowScore,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}

	if c.HighScore < c.MediumScore || c.MediumScore < c.LowScore {
		errs = append(errs, "tier boundaries must be ordered high >= medium >= low")
	}
	if c.MileageTolerance <= 0 || c.PriceTolerance <= 0 {
		errs = append(errs, "tolerances must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("matching: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
