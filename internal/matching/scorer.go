package matching

import (
	"github.com/motorgrid/lotsync/internal/config"
	"github.com/motorgrid/lotsync/internal/model"
)

// Scorer scores one source record against one catalog record. It is
// stateless; all weights and thresholds come from the config struct so
// tests can probe boundary values.
type Scorer struct {
	cfg config.MatcherConfig
}

// NewScorer creates a Scorer with the given matcher configuration.
func NewScorer(cfg config.MatcherConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score applies the hard eligibility filters and, for surviving pairs,
// computes the weighted composite. Returns (nil, false) when the pair
// is ineligible or the composite falls below the acceptance threshold.
//
// The filters are deliberately precision-over-recall: a record missing
// brand, model, year, mileage or price on either side can never match.
func (s *Scorer) Score(src model.SourceRecord, cat model.CatalogRecord) (*model.MatchCandidate, bool) {
	// Hard filter: brand.
	if src.Brand == "" || cat.Brand == "" {
		return nil, false
	}
	brandSim := TextSimilarity(src.Brand, cat.Brand)
	if brandSim < s.cfg.MinBrandSimilarity {
		return nil, false
	}

	// Hard filter: model.
	if src.Model == "" || cat.Model == "" {
		return nil, false
	}
	modelSim := TextSimilarity(src.Model, cat.Model)
	if modelSim < s.cfg.MinModelSimilarity {
		return nil, false
	}

	// Hard filter: year, exact equality. YearSimilarity's one-year
	// partial credit never reaches the composite through this filter.
	if src.Year == nil || cat.Year == nil || *src.Year != *cat.Year {
		return nil, false
	}
	yearSim := YearSimilarity(*src.Year, *cat.Year)

	// Hard filter: mileage within tolerance.
	if src.Mileage == nil || cat.Mileage == nil {
		return nil, false
	}
	mileageSim := NumericSimilarity(
		float64(*src.Mileage), float64(*cat.Mileage),
		s.cfg.MileageTolerance, s.cfg.MinMileageSimilarity,
	)
	if mileageSim < s.cfg.MinMileageSimilarity {
		return nil, false
	}

	// Hard filter: price within tolerance, same currency after
	// normalization. Cross-currency amounts are not comparable and the
	// pair is discarded rather than scored on raw numbers.
	if src.Price == nil || cat.Price == nil || src.Price.Currency != cat.Price.Currency {
		return nil, false
	}
	priceSim := NumericSimilarity(
		src.Price.Amount, cat.Price.Amount,
		s.cfg.PriceTolerance, s.cfg.MinPriceSimilarity,
	)
	if priceSim < s.cfg.MinPriceSimilarity {
		return nil, false
	}

	fields := []model.FieldScore{
		{Field: "brand", Score: brandSim},
		{Field: "model", Score: modelSim},
		{Field: "year", Score: yearSim},
		{Field: "mileage", Score: mileageSim},
		{Field: "price", Score: priceSim},
	}

	weighted := brandSim*s.cfg.BrandWeight +
		modelSim*s.cfg.ModelWeight +
		yearSim*s.cfg.YearWeight +
		mileageSim*s.cfg.MileageWeight +
		priceSim*s.cfg.PriceWeight
	weightSum := s.cfg.BrandWeight + s.cfg.ModelWeight + s.cfg.YearWeight +
		s.cfg.MileageWeight + s.cfg.PriceWeight

	// Color and version are optional: absent on either side they drop
	// out of the denominator instead of dragging the score down.
	if src.Color != "" && cat.Color != "" {
		sim := TextSimilarity(src.Color, cat.Color)
		fields = append(fields, model.FieldScore{Field: "color", Score: sim})
		weighted += sim * s.cfg.ColorWeight
		weightSum += s.cfg.ColorWeight
	}
	if src.Version != "" && cat.Version != "" {
		sim := TextSimilarity(src.Version, cat.Version)
		fields = append(fields, model.FieldScore{Field: "version", Score: sim})
		weighted += sim * s.cfg.VersionWeight
		weightSum += s.cfg.VersionWeight
	}

	if weightSum == 0 {
		return nil, false
	}
	composite := weighted / weightSum

	// Plate bonus is additive on top of the normalized composite; the
	// result is clamped at 1.0 so a strong plate match can only raise
	// the score, never push it out of range.
	if src.Plate != "" && cat.Plate != "" {
		plateSim := PlateSimilarity(src.Plate, cat.Plate)
		if plateSim > 0 {
			fields = append(fields, model.FieldScore{Field: "plate", Score: plateSim})
			composite += plateSim * s.cfg.PlateBonus
			if composite > 1 {
				composite = 1
			}
		}
	}

	if composite < s.cfg.AcceptScore {
		return nil, false
	}

	return &model.MatchCandidate{
		Catalog:    cat,
		Score:      composite,
		Fields:     fields,
		Confidence: s.Confidence(composite),
	}, true
}

// Confidence maps a composite score to its tier. Boundaries inclusive:
// a score of exactly HighScore is high.
func (s *Scorer) Confidence(score float64) model.Confidence {
	switch {
	case score >= s.cfg.HighScore:
		return model.ConfidenceHigh
	case score >= s.cfg.MediumScore:
		return model.ConfidenceMedium
	case score >= s.cfg.LowScore:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}
