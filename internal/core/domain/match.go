package domain

import "time"

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders tiers by matcher strength; lower is stronger.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 3
	default:
		return 4
	}
}

func ParseConfidence(raw string) (Confidence, bool) {
	switch Confidence(raw) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(raw), true
	default:
		return "", false
	}
}

var ConfidenceTiers = []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}

// AgencyServiceMatch links an agency usage record to a catalog entry.
type AgencyServiceMatch struct {
	ID         int64      `json:"id,omitempty"`
	AgencyID   int64      `json:"agency_id"`
	EntryID    string     `json:"product_id"`
	Provider   string     `json:"provider_name"`
	EntryName  string     `json:"product_name"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"match_reason"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
}

type MatchFilter struct {
	AgencyID   int64
	Confidence Confidence
}

type MatchSummary struct {
	AgenciesProcessed   int                `json:"agencies_processed" yaml:"agencies_processed"`
	AgenciesWithMatches int                `json:"agencies_with_matches" yaml:"agencies_with_matches"`
	TotalMatches        int                `json:"total_matches" yaml:"total_matches"`
	ByConfidence        map[Confidence]int `json:"by_confidence" yaml:"by_confidence"`
}
