package research

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/pkg/anthropic"
)

// Analyzer runs web research for a company and structures the findings
// into a SignalReport.
type Analyzer struct {
	web       provider.ResearchProvider
	llm       anthropic.Client
	llmModel  string
	maxTokens int64
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithModel overrides the structuring model.
func WithModel(m string) Option {
	return func(a *Analyzer) { a.llmModel = m }
}

// NewAnalyzer creates an analyzer. llm may be nil, in which case the
// research text itself is expected to contain the report JSON.
func NewAnalyzer(web provider.ResearchProvider, llm anthropic.Client, opts ...Option) *Analyzer {
	a := &Analyzer{web: web, llm: llm, maxTokens: 4096}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze researches a company and returns a normalized report: signals
// cross-validated against the research text, capped at the retention
// limit and sorted by weight then recency.
func (a *Analyzer) Analyze(ctx context.Context, companyName, domain string) (*model.SignalReport, error) {
	findings, err := a.web.Research(ctx, ResearchPrompt(companyName, domain))
	if err != nil {
		return nil, eris.Wrap(err, "research: web research")
	}

	raw, err := a.structure(ctx, companyName, domain, findings)
	if err != nil {
		return nil, err
	}

	return a.finalize(raw, findings, companyName, domain), nil
}

func (a *Analyzer) structure(ctx context.Context, companyName, domain string, findings *provider.ResearchResult) (*model.SignalReport, error) {
	if a.llm == nil {
		return ParseSignalReport(findings.Text)
	}

	resp, err := a.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.llmModel,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: StructuringPrompt(companyName, domain, findings.Text, findings.Citations)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "research: structure findings")
	}
	return ParseSignalReport(resp.Text())
}

func (a *Analyzer) finalize(report *model.SignalReport, findings *provider.ResearchResult, companyName, domain string) *model.SignalReport {
	if report.CompanyName == "" {
		report.CompanyName = companyName
	}
	if report.CompanyDomain == "" {
		report.CompanyDomain = domain
	}

	corpus := strings.ToLower(findings.Text)
	for i := range report.PrioritySignals {
		s := &report.PrioritySignals[i]
		s.Confidence = confidenceFromMentions(mentionCount(corpus, s.Title) + mentionCount(corpus, s.Name))
		if s.SourceURL == "" && len(findings.Citations) > 0 {
			s.SourceURL = findings.Citations[0]
		}
	}

	report.TotalSignalsFound = len(report.PrioritySignals)
	report.SignalsByCategory = model.TallySignalsByCategory(report.PrioritySignals)
	report.PrioritySignals = model.SortAndCapSignals(report.PrioritySignals)
	report.OverallSignalStrength = overallStrength(report.PrioritySignals)

	zap.L().Debug("research analysis complete",
		zap.String("domain", report.CompanyDomain),
		zap.Int("signals_found", report.TotalSignalsFound),
		zap.String("strength", string(report.OverallSignalStrength)),
	)
	return report
}

// mentionCount counts how often the significant words of a phrase occur
// in the corpus. Short stop-words are ignored.
func mentionCount(corpus, phrase string) int {
	count := 0
	for _, w := range strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) <= 3 {
			continue
		}
		count += strings.Count(corpus, w)
	}
	return count
}

// confidenceFromMentions cross-validates a signal against the research
// corpus: repeatedly-mentioned facts earn higher confidence.
func confidenceFromMentions(mentions int) model.ConfidenceLevel {
	switch {
	case mentions >= 4:
		return model.ConfidenceHigh
	case mentions >= 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// overallStrength summarizes the retained signal list.
func overallStrength(signals []model.Signal) model.ConfidenceLevel {
	if len(signals) == 0 {
		return model.ConfidenceLow
	}
	strong := 0
	for _, s := range signals {
		if s.Weight >= 4 {
			strong++
		}
	}
	if strong >= 2 && len(signals) >= 3 {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}

// MinimalReport is the fallback when research fails entirely.
func MinimalReport(companyName, domain string) *model.SignalReport {
	return &model.SignalReport{
		CompanyName:           companyName,
		CompanyDomain:         domain,
		PrioritySignals:       []model.Signal{},
		SignalsByCategory:     map[model.SignalCategory]int{},
		OverallSignalStrength: model.ConfidenceLow,
	}
}
