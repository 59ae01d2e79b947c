package reconcile

import (
	"github.com/sells-group/enrich-cli/internal/alias"
	"github.com/sells-group/enrich-cli/internal/model"
)

// Fixed confidence constants per source tier. These are policy, not
// measurements: firmographic lookups are the most reliable, research and
// social content a step below, executive/person mapping in between.
const (
	confFirmographic = 0.90
	confResearch     = 0.80
	confDerivedText  = 0.75
	confSocial       = 0.75
	confProspects    = 0.85
	confVerification = 0.85
)

// Data freshness labels attached to results.
const (
	freshnessLive     = "live"
	freshnessResearch = "recent"
)

func (r *Reconciler) registerDefaults() {
	r.resolvers[alias.KeyCompanyName] = firmographic(func(a *model.CompanyAnalysis) any {
		if a.CompanyName == "" {
			return nil
		}
		return a.CompanyName
	})
	r.resolvers[alias.KeyCompanyDomain] = firmographic(func(a *model.CompanyAnalysis) any {
		if a.CompanyDomain == "" {
			return nil
		}
		return a.CompanyDomain
	})
	r.resolvers[alias.KeyCompanyIndustry] = firmographic(func(a *model.CompanyAnalysis) any {
		if a.CompanyIndustry == "" {
			return nil
		}
		return a.CompanyIndustry
	})
	r.resolvers[alias.KeyCompanyCountry] = firmographic(func(a *model.CompanyAnalysis) any {
		if a.CompanyCountry == "" {
			return nil
		}
		return a.CompanyCountry
	})
	r.resolvers[alias.KeyCompanyCompetitors] = firmographic(func(a *model.CompanyAnalysis) any {
		if len(a.CompanyCompetitors) == 0 {
			return nil
		}
		return a.CompanyCompetitors
	})

	r.resolvers[alias.KeySignalStrength] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if a.OverallSignalStrength == "" {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         string(a.OverallSignalStrength),
			Confidence:    confResearch,
			Source:        model.SourceWeb,
			SourceContext: []string{"signal_analysis"},
			DataFreshness: freshnessResearch,
		}, true
	}

	r.resolvers[alias.KeyPrioritySignals] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if len(a.PrioritySignals) == 0 {
			return model.EnrichmentResult{}, false
		}
		res := model.EnrichmentResult{
			Value:         a.PrioritySignals,
			Confidence:    confResearch,
			Source:        model.SourceWeb,
			SourceContext: signalSources(a.PrioritySignals),
			DataFreshness: freshnessResearch,
		}
		top := a.PrioritySignals[0]
		res.PrimarySourceURL = top.SourceURL
		res.RecommendedAction = top.RecommendedAction
		return res, true
	}

	r.resolvers[alias.KeyKeyInsights] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if a.KeyInsights == "" {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         a.KeyInsights,
			Confidence:    confDerivedText,
			Source:        model.SourceWeb,
			SourceContext: []string{"signal_analysis"},
			DataFreshness: freshnessResearch,
		}, true
	}

	r.resolvers[alias.KeyPersonalizationHooks] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if len(a.PersonalizationHooks) == 0 {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         a.PersonalizationHooks,
			Confidence:    confDerivedText,
			Source:        model.SourceWeb,
			SourceContext: []string{"signal_analysis"},
			DataFreshness: freshnessResearch,
		}, true
	}

	r.resolvers[alias.KeyRecommendedActions] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		var actions []string
		for _, s := range a.PrioritySignals {
			if s.RecommendedAction != "" {
				actions = append(actions, s.RecommendedAction)
			}
		}
		if len(actions) == 0 {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         actions,
			Confidence:    confDerivedText,
			Source:        model.SourceWeb,
			SourceContext: signalSources(a.PrioritySignals),
			DataFreshness: freshnessResearch,
		}, true
	}

	// Composite fields assembled straight from auxiliary attachments, with
	// their own source attribution independent of the firmographic source.
	r.resolvers[alias.KeyLinkedInRecentPosts] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if len(a.LinkedInRecentPosts) == 0 {
			return model.EnrichmentResult{}, false
		}
		res := model.EnrichmentResult{
			Value:         a.LinkedInRecentPosts,
			Confidence:    confSocial,
			Source:        "linkedin",
			SourceContext: postSources(a.LinkedInRecentPosts),
			DataFreshness: freshnessResearch,
		}
		res.PrimarySourceURL = a.LinkedInRecentPosts[0].URL
		return res, true
	}

	r.resolvers[alias.KeyCompanyActivity] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if a.CompanyActivity == nil {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         *a.CompanyActivity,
			Confidence:    confSocial,
			Source:        "linkedin",
			SourceContext: []string{"activity_aggregate"},
			DataFreshness: freshnessResearch,
		}, true
	}

	r.resolvers[alias.KeyEmailVerification] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if a.EmailVerification == nil {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         *a.EmailVerification,
			Confidence:    confVerification,
			Source:        model.SourceSnov,
			SourceContext: []string{"email_verification"},
			DataFreshness: freshnessLive,
		}, true
	}

	r.resolvers[alias.KeyProspects] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if len(a.Prospects) == 0 {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         a.Prospects,
			Confidence:    confProspects,
			Source:        model.SourceApollo,
			SourceContext: []string{"people_match"},
			DataFreshness: freshnessLive,
		}, true
	}

	r.resolvers[alias.KeyTechnologies] = func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		if len(a.Technologies) == 0 {
			return model.EnrichmentResult{}, false
		}
		return model.EnrichmentResult{
			Value:         a.Technologies,
			Confidence:    confResearch,
			Source:        model.SourceExplorium,
			SourceContext: []string{"technographics"},
			DataFreshness: freshnessLive,
		}, true
	}
}

// firmographic wraps a value extractor with the shared firmographic result
// shape: the analysis-level winning source and the fixed tier confidence.
func firmographic(extract func(*model.CompanyAnalysis) any) resolverFunc {
	return func(a *model.CompanyAnalysis) (model.EnrichmentResult, bool) {
		v := extract(a)
		if v == nil {
			return model.EnrichmentResult{}, false
		}
		// The merge writes the literal "unknown" when every layer came up
		// empty. That is absence, not an answer.
		if s, ok := v.(string); ok && s == model.SourceUnknown {
			return model.EnrichmentResult{}, false
		}
		source := a.Source
		if source == "" {
			source = model.SourceUnknown
		}
		return model.EnrichmentResult{
			Value:         v,
			Confidence:    confFirmographic,
			Source:        source,
			SourceContext: []string{"firmographic"},
			DataFreshness: freshnessLive,
		}, true
	}
}

func signalSources(signals []model.Signal) []string {
	seen := make(map[string]bool, len(signals))
	var urls []string
	for _, s := range signals {
		if s.SourceURL == "" || seen[s.SourceURL] {
			continue
		}
		seen[s.SourceURL] = true
		urls = append(urls, s.SourceURL)
	}
	return urls
}

func postSources(posts []model.SocialPost) []string {
	var urls []string
	for _, p := range posts {
		if p.URL != "" {
			urls = append(urls, p.URL)
		}
	}
	return urls
}
