// Package discover coordinates the provider fan-out for one company and
// merges the answers into a single CompanyAnalysis.
package discover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/research"
)

// Request identifies whose company to discover. Hints come from the
// input row; the domain hint wins over the email-derived domain.
type Request struct {
	Email      string
	NameHint   string
	DomainHint string
}

// Analyzer is the web-research dependency.
type Analyzer interface {
	Analyze(ctx context.Context, companyName, domain string) (*model.SignalReport, error)
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithPostsLimit caps the number of social posts fetched per company.
func WithPostsLimit(n int) Option {
	return func(c *Coordinator) { c.postsLimit = n }
}

// WithEmailVerification toggles the async deliverability check.
func WithEmailVerification(on bool) Option {
	return func(c *Coordinator) { c.verifyEmail = on }
}

// Coordinator fans out to the registered providers and layers their
// answers. It never returns an error: absence of data is not a fault.
type Coordinator struct {
	registry    *provider.Registry
	analyzer    Analyzer
	postsLimit  int
	verifyEmail bool

	nowFunc func() time.Time // injectable for tests
}

// New creates a discovery coordinator. analyzer may be nil when no
// research provider is configured.
func New(registry *provider.Registry, analyzer Analyzer, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:    registry,
		analyzer:    analyzer,
		postsLimit:  10,
		verifyEmail: true,
		nowFunc:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Discover enriches one company. Provider failures are isolated: each
// is logged and treated as "no data".
func (c *Coordinator) Discover(ctx context.Context, req Request) *model.CompanyAnalysis {
	domain := model.NormalizeDomain(req.DomainHint)
	if domain == "" {
		domain = model.DomainFromEmail(req.Email)
	}

	companies := c.registry.Company()
	records := make([]*model.CompanyRecord, len(companies))

	var (
		report       *model.SignalReport
		verification *model.EmailVerification
		technologies []model.Technology
	)

	// First wave: everything that depends only on the domain/email runs
	// concurrently. Goroutines absorb their own failures.
	var g errgroup.Group
	for i, p := range companies {
		g.Go(func() error {
			rec, err := p.Enrich(ctx, domain)
			if err != nil {
				logProviderFailure(p.Name(), "enrich", domain, err)
				return nil
			}
			if rec == nil {
				provider.LogProviderMiss(p.Name(), "enrich", domain)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	if c.analyzer != nil {
		g.Go(func() error {
			rep, err := c.analyzer.Analyze(ctx, req.NameHint, domain)
			if err != nil {
				logProviderFailure(model.SourceWeb, "research", domain, err)
				return nil
			}
			report = rep
			return nil
		})
	}
	if c.verifyEmail && req.Email != "" {
		for _, p := range c.registry.Verify() {
			g.Go(func() error {
				v, err := p.Verify(ctx, req.Email)
				if err != nil {
					logProviderFailure(p.Name(), "verify", req.Email, err)
					return nil
				}
				if verification == nil {
					verification = v
				}
				return nil
			})
			break
		}
	}
	for _, p := range c.registry.Tech() {
		g.Go(func() error {
			techs, err := p.Technologies(ctx, domain)
			if err != nil {
				logProviderFailure(p.Name(), "technographics", domain, err)
				return nil
			}
			if technologies == nil {
				technologies = techs
			}
			return nil
		})
		break
	}
	_ = g.Wait()

	// Trust evaluation disqualifies the primary answer for this row when
	// it does not plausibly describe the requested company.
	var trustedPrimary *model.CompanyRecord
	if len(records) > 0 && records[0] != nil {
		if reason := distrustReason(records[0], domain, req.NameHint); reason == "" {
			trustedPrimary = records[0]
		} else {
			zap.L().Info("primary provider answer disqualified",
				zap.String("domain", domain),
				zap.String("provider", companies[0].Name()),
				zap.String("reason", reason),
			)
		}
	}

	// Second wave: person match by email, then social content using the
	// person's LinkedIn URL when available.
	person := c.matchPerson(ctx, req.Email)

	researchOK := report != nil
	if report == nil {
		report = research.MinimalReport(req.NameHint, domain)
	}

	analysis := c.merge(domain, req, trustedPrimary, records, report, researchOK)

	linkedInURL := analysis.LinkedInURL
	if person != nil && person.LinkedInURL != "" {
		linkedInURL = person.LinkedInURL
	}
	posts := c.fetchPosts(ctx, linkedInURL)

	analysis.LinkedInRecentPosts = posts
	analysis.CompanyActivity = buildActivity(posts, c.nowFunc())
	analysis.EmailVerification = verification
	analysis.Technologies = technologies
	if person != nil {
		analysis.Prospects = []model.Prospect{prospectFromPerson(person, req.Email)}
	}
	return analysis
}

func (c *Coordinator) matchPerson(ctx context.Context, email string) *model.PersonRecord {
	if email == "" {
		return nil
	}
	for _, p := range c.registry.Person() {
		rec, err := p.MatchByEmail(ctx, email)
		if err != nil {
			logProviderFailure(p.Name(), "match_person", email, err)
			continue
		}
		if rec == nil {
			provider.LogProviderMiss(p.Name(), "match_person", email)
			continue
		}
		return rec
	}
	return nil
}

func (c *Coordinator) fetchPosts(ctx context.Context, linkedInURL string) []model.SocialPost {
	if linkedInURL == "" {
		return nil
	}
	for _, p := range c.registry.Social() {
		posts, err := p.RecentPosts(ctx, linkedInURL, c.postsLimit)
		if err != nil {
			logProviderFailure(p.Name(), "recent_posts", linkedInURL, err)
			continue
		}
		if len(posts) == 0 {
			provider.LogProviderMiss(p.Name(), "recent_posts", linkedInURL)
			continue
		}
		return posts
	}
	return nil
}

// merge layers firmographic answers per field: trusted primary, then
// secondary providers, then web research, then the raw input hint, then
// the literal "unknown". The winning layer is recorded as source.
func (c *Coordinator) merge(domain string, req Request, trustedPrimary *model.CompanyRecord, records []*model.CompanyRecord, report *model.SignalReport, researchOK bool) *model.CompanyAnalysis {
	type layer struct {
		source string
		rec    *model.CompanyRecord
	}

	companies := c.registry.Company()
	var layers []layer
	if trustedPrimary != nil {
		layers = append(layers, layer{companies[0].Name(), trustedPrimary})
	}
	for i := 1; i < len(records); i++ {
		if records[i] != nil {
			layers = append(layers, layer{companies[i].Name(), records[i]})
		}
	}
	if researchOK {
		layers = append(layers, layer{model.SourceWeb, &model.CompanyRecord{
			Name:   report.CompanyName,
			Domain: model.NormalizeDomain(report.CompanyDomain),
		}})
	}
	layers = append(layers, layer{"hint", &model.CompanyRecord{
		Name:   req.NameHint,
		Domain: domain,
	}})

	winners := make(map[string]bool)
	pick := func(extract func(*model.CompanyRecord) string) string {
		for _, l := range layers {
			if v := extract(l.rec); v != "" {
				if l.source != "hint" {
					winners[l.source] = true
				}
				return v
			}
		}
		return model.SourceUnknown
	}

	analysis := &model.CompanyAnalysis{SignalReport: *report}
	analysis.CompanyName = pick(func(r *model.CompanyRecord) string { return r.Name })
	analysis.CompanyDomain = pick(func(r *model.CompanyRecord) string { return r.Domain })
	analysis.CompanyIndustry = pick(func(r *model.CompanyRecord) string { return r.Industry })
	analysis.CompanyCountry = pick(func(r *model.CompanyRecord) string { return r.Country })

	for _, l := range layers {
		if len(l.rec.Competitors) > 0 {
			analysis.CompanyCompetitors = l.rec.Competitors
			if l.source != "hint" {
				winners[l.source] = true
			}
			break
		}
	}
	for _, l := range layers {
		if l.rec.LinkedInURL != "" {
			analysis.LinkedInURL = l.rec.LinkedInURL
			break
		}
	}

	switch len(winners) {
	case 0:
		analysis.Source = model.SourceUnknown
	case 1:
		for s := range winners {
			analysis.Source = s
		}
	default:
		analysis.Source = model.SourceMultiple
	}
	return analysis
}

// distrustReason flags a firmographic answer that does not plausibly
// match the requested company. Empty means trusted.
func distrustReason(rec *model.CompanyRecord, domain, nameHint string) string {
	if rec.Domain != "" && domain != "" && rec.Domain != domain {
		return fmt.Sprintf("domain mismatch: %s != %s", rec.Domain, domain)
	}
	if nameHint != "" && rec.Name != "" &&
		!strings.Contains(strings.ToLower(rec.Name), strings.ToLower(nameHint)) {
		return fmt.Sprintf("name %q does not contain %q", rec.Name, nameHint)
	}
	if model.LooksLikeDomain(rec.Name) {
		return fmt.Sprintf("name %q looks like a bare domain", rec.Name)
	}
	return ""
}

func prospectFromPerson(p *model.PersonRecord, email string) model.Prospect {
	return model.Prospect{
		Name:        strings.TrimSpace(p.FirstName + " " + p.LastName),
		Title:       p.Title,
		Email:       email,
		LinkedInURL: p.LinkedInURL,
	}
}

// buildActivity aggregates posting cadence over the last 90 days.
func buildActivity(posts []model.SocialPost, now time.Time) *model.CompanyActivity {
	if len(posts) == 0 {
		return nil
	}

	cutoff := now.AddDate(0, 0, -90)
	recent := 0
	var latest time.Time
	var latestStr string
	for _, p := range posts {
		t, ok := parsePostTime(p.PostedAt)
		if !ok {
			continue
		}
		if t.After(cutoff) {
			recent++
		}
		if t.After(latest) {
			latest = t
			latestStr = p.PostedAt
		}
	}

	level := "dormant"
	switch {
	case recent >= 6:
		level = "active"
	case recent >= 1:
		level = "occasional"
	}

	return &model.CompanyActivity{
		PostsLast90Days: recent,
		LastPostAt:      latestStr,
		ActivityLevel:   level,
	}
}

func parsePostTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func logProviderFailure(name, operation, key string, err error) {
	zap.L().Warn("provider lookup failed",
		zap.String("provider", name),
		zap.String("operation", operation),
		zap.String("key", key),
		zap.Error(err),
	)
}
