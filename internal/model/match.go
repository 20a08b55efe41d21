package model

// Confidence classifies an accepted match candidate by composite score.
type Confidence string

// Confidence tiers. Boundaries are inclusive: a composite of exactly
// 0.80 is high.
const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceVeryLow Confidence = "very_low"
)

// FieldScore is the similarity of one attribute between a source record
// and a catalog record, bounded to [0,1].
type FieldScore struct {
	Field string  `json:"field"`
	Score float64 `json:"score"`
}

// MatchCandidate pairs one source record with one catalog record.
// Ephemeral: built, scored, and either kept or discarded within one
// matching pass.
type MatchCandidate struct {
	Catalog    CatalogRecord `json:"catalog"`
	Score      float64       `json:"score"`
	Fields     []FieldScore  `json:"fields"`
	Confidence Confidence    `json:"confidence"`
}

// MatchResult is the outcome of matching one source record against the
// full catalog. Best is nil when no candidate survived the hard filters
// and the acceptance threshold.
type MatchResult struct {
	Source     SourceRecord     `json:"source"`
	Best       *MatchCandidate  `json:"best,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// HasMatch reports whether any candidate was accepted.
func (r *MatchResult) HasMatch() bool {
	return r.Best != nil
}

// HasHighConfidence reports whether the best candidate is a high tier
// match. Downstream enrichment keys off this flag.
func (r *MatchResult) HasHighConfidence() bool {
	return r.Best != nil && r.Best.Confidence == ConfidenceHigh
}
