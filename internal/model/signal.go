package model

import (
	"sort"
	"time"
)

// SignalCategory classifies a research signal.
type SignalCategory string

const (
	SignalOrganizational SignalCategory = "organizational"
	SignalMarket         SignalCategory = "market"
	SignalPerformance    SignalCategory = "performance"
	SignalPersonal       SignalCategory = "personal"
)

// MaxPrioritySignals caps the retained signal list per company.
const MaxPrioritySignals = 7

// Signal is a timestamped, weighted, sourced fact about a company judged
// useful for outreach personalization.
type Signal struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          SignalCategory  `json:"category"`
	Weight            int             `json:"weight"` // 1..5
	Date              string          `json:"date,omitempty"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	SourceURL         string          `json:"source_url,omitempty"`
	Confidence        ConfidenceLevel `json:"confidence"`
	RecommendedAction string          `json:"recommended_action,omitempty"`
	CopyAngle         string          `json:"copy_angle,omitempty"`
}

// SignalReport is the normalized output of the web-research provider.
type SignalReport struct {
	CompanyName           string                 `json:"company_name"`
	CompanyDomain         string                 `json:"company_domain"`
	PrioritySignals       []Signal               `json:"priority_signals"`
	TotalSignalsFound     int                    `json:"total_signals_found"`
	SignalsByCategory     map[SignalCategory]int `json:"signals_by_category"`
	OverallSignalStrength ConfidenceLevel        `json:"overall_signal_strength"`
	KeyInsights           string                 `json:"key_insights,omitempty"`
	PersonalizationHooks  []string               `json:"personalization_hooks,omitempty"`
}

// SortAndCapSignals orders signals by descending weight, ties broken by
// recency (newer first), and truncates to MaxPrioritySignals.
func SortAndCapSignals(signals []Signal) []Signal {
	sorted := make([]Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight > sorted[j].Weight
		}
		return signalTime(sorted[i]).After(signalTime(sorted[j]))
	})
	if len(sorted) > MaxPrioritySignals {
		sorted = sorted[:MaxPrioritySignals]
	}
	return sorted
}

// TallySignalsByCategory counts signals per category.
func TallySignalsByCategory(signals []Signal) map[SignalCategory]int {
	tally := make(map[SignalCategory]int)
	for _, s := range signals {
		tally[s.Category]++
	}
	return tally
}

// signalTime parses the signal date for recency ordering. Unparseable or
// missing dates sort last.
func signalTime(s Signal) time.Time {
	if s.Date == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
		if t, err := time.Parse(layout, s.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
