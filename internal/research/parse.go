package research

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ParseSignalReport extracts a signal report from model output, which
// may be raw JSON or JSON inside a markdown fence. Signals are
// normalized: missing IDs assigned, unknown categories mapped to
// market, weights clamped to 1..5.
func ParseSignalReport(text string) (*model.SignalReport, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("research: no JSON object in response")
	}

	var report model.SignalReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, eris.Wrap(err, "research: unmarshal signal report")
	}

	for i := range report.PrioritySignals {
		normalizeSignal(&report.PrioritySignals[i], i)
	}
	return &report, nil
}

func normalizeSignal(s *model.Signal, idx int) {
	if s.ID == "" {
		s.ID = fmt.Sprintf("sig-%d", idx+1)
	}
	switch s.Category {
	case model.SignalOrganizational, model.SignalMarket, model.SignalPerformance, model.SignalPersonal:
	default:
		s.Category = model.SignalMarket
	}
	if s.Weight < 1 {
		s.Weight = 1
	}
	if s.Weight > 5 {
		s.Weight = 5
	}
	if s.Name == "" {
		s.Name = s.Title
	}
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
