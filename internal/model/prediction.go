package model

// Well-known prediction record fields.
const (
	FieldLabel = "Label"
	FieldScore = "Score"
	FieldID    = "ID"
)

// Summary holds per-tier counts for a batch. The JSON names match the scoring
// service contract, including its "glod_predictions" spelling.
type Summary struct {
	Platinum int `json:"platinum_predictions"`
	Gold     int `json:"glod_predictions"`
	Silver   int `json:"silver_predictions"`
	Bronze   int `json:"bronze_predictions"`
	Copper   int `json:"copper_predictions"`
	Total    int `json:"total_predictions"`
	// Unknown counts records whose tier could not be resolved. It is only
	// filled in by client-side tallies and is never sent by the service.
	Unknown int `json:"-"`
}

// Count returns the bucket for t. Unknown tiers return the Unknown count.
func (s Summary) Count(t Tier) int {
	switch t {
	case TierPlatinum:
		return s.Platinum
	case TierGold:
		return s.Gold
	case TierSilver:
		return s.Silver
	case TierBronze:
		return s.Bronze
	case TierCopper:
		return s.Copper
	default:
		return s.Unknown
	}
}

// Add counts one record of tier t.
func (s *Summary) Add(t Tier) {
	s.Total++
	switch t {
	case TierPlatinum:
		s.Platinum++
	case TierGold:
		s.Gold++
	case TierSilver:
		s.Silver++
	case TierBronze:
		s.Bronze++
	case TierCopper:
		s.Copper++
	default:
		s.Unknown++
	}
}

// Named returns the sum of the five named buckets.
func (s Summary) Named() int {
	return s.Platinum + s.Gold + s.Silver + s.Bronze + s.Copper
}

// Consistent reports whether Total equals the sum of the named buckets and
// every count is non-negative.
func (s Summary) Consistent() bool {
	for _, n := range []int{s.Platinum, s.Gold, s.Silver, s.Bronze, s.Copper, s.Total} {
		if n < 0 {
			return false
		}
	}
	return s.Total == s.Named()
}

// BatchResult is the outcome of a file-mode submission.
type BatchResult struct {
	Source      string   `json:"-"`
	Predictions []Record `json:"predictions"`
	Summary     Summary  `json:"summary"`
}

// CustomerPrediction is the outcome of an identifier-mode lookup.
type CustomerPrediction struct {
	CustomerID string   `json:"customer_ID"`
	Data       []Record `json:"data"`
	Score      float64  `json:"score"`
}

// Tier derives the tier from the raw score. The service does not send a label
// for single lookups.
func (c CustomerPrediction) Tier() Tier {
	return Classify(c.Score)
}
