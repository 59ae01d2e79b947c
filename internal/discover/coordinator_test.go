package discover

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/provider"
)

type stubCompany struct {
	name   string
	rec    *model.CompanyRecord
	err    error
	domain string
}

func (s *stubCompany) Name() string { return s.name }

func (s *stubCompany) Enrich(_ context.Context, domain string) (*model.CompanyRecord, error) {
	s.domain = domain
	return s.rec, s.err
}

type stubPerson struct {
	rec *model.PersonRecord
	err error
}

func (s *stubPerson) Name() string { return model.SourceApollo }

func (s *stubPerson) MatchByEmail(_ context.Context, _ string) (*model.PersonRecord, error) {
	return s.rec, s.err
}

type stubVerify struct {
	v *model.EmailVerification
}

func (s *stubVerify) Name() string { return model.SourceSnov }

func (s *stubVerify) Verify(_ context.Context, email string) (*model.EmailVerification, error) {
	return s.v, nil
}

type stubSocial struct {
	posts []model.SocialPost
	url   string
}

func (s *stubSocial) Name() string { return model.SourceApify }

func (s *stubSocial) RecentPosts(_ context.Context, linkedInURL string, _ int) ([]model.SocialPost, error) {
	s.url = linkedInURL
	return s.posts, nil
}

type stubAnalyzer struct {
	report *model.SignalReport
	err    error
	domain string
}

func (s *stubAnalyzer) Analyze(_ context.Context, _, domain string) (*model.SignalReport, error) {
	s.domain = domain
	return s.report, s.err
}

func registryWith(companies ...provider.CompanyProvider) *provider.Registry {
	r := provider.NewRegistry()
	for _, c := range companies {
		r.RegisterCompany(c)
	}
	return r
}

func TestDiscoverDomainHintWinsOverEmail(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo}
	c := New(registryWith(primary), nil)

	c.Discover(context.Background(), Request{
		Email:      "jane@acme.com",
		DomainHint: "https://www.acme-group.com",
	})
	assert.Equal(t, "acme-group.com", primary.domain)
}

func TestDiscoverTrustedPrimaryWins(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:     "Acme Corporation",
		Domain:   "acme.com",
		Industry: "manufacturing",
	}}
	secondary := &stubCompany{name: model.SourceExplorium, rec: &model.CompanyRecord{
		Name:     "Acme (stale)",
		Domain:   "acme.com",
		Industry: "retail",
	}}
	c := New(registryWith(primary, secondary), nil)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com", NameHint: "Acme"})
	assert.Equal(t, "Acme Corporation", a.CompanyName)
	assert.Equal(t, "manufacturing", a.CompanyIndustry)
	assert.Equal(t, model.SourceApollo, a.Source)
}

func TestDiscoverDomainMismatchDisqualifiesPrimary(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:   "Other Company",
		Domain: "other.com",
	}}
	secondary := &stubCompany{name: model.SourceExplorium, rec: &model.CompanyRecord{
		Name:   "Acme Corporation",
		Domain: "acme.com",
	}}
	c := New(registryWith(primary, secondary), nil)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	assert.Equal(t, "Acme Corporation", a.CompanyName)
	assert.Equal(t, model.SourceExplorium, a.Source)
}

func TestDiscoverNameMismatchDisqualifiesPrimary(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:   "Completely Different Inc",
		Domain: "acme.com",
	}}
	c := New(registryWith(primary), nil)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com", NameHint: "Acme"})
	// Primary disqualified; the raw input hint is the best remaining name
	// and hints never count as a winning source.
	assert.Equal(t, "Acme", a.CompanyName)
	assert.Equal(t, model.SourceUnknown, a.Source)
}

func TestDiscoverBareDomainNameDisqualifiesPrimary(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:   "acme.com",
		Domain: "acme.com",
	}}
	c := New(registryWith(primary), nil)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	assert.Equal(t, model.SourceUnknown, a.CompanyName)
}

func TestDiscoverProviderFailureIsolated(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo, err: assert.AnError}
	secondary := &stubCompany{name: model.SourceExplorium, rec: &model.CompanyRecord{
		Name:   "Acme Corporation",
		Domain: "acme.com",
	}}
	c := New(registryWith(primary, secondary), nil)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	assert.Equal(t, "Acme Corporation", a.CompanyName)
}

func TestDiscoverSourceMultiple(t *testing.T) {
	primary := &stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:   "Acme Corporation",
		Domain: "acme.com",
	}}
	secondary := &stubCompany{name: model.SourceExplorium, rec: &model.CompanyRecord{
		Name:     "Acme Corporation",
		Domain:   "acme.com",
		Industry: "manufacturing",
	}}
	c := New(registryWith(primary, secondary), nil)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	assert.Equal(t, model.SourceMultiple, a.Source)
}

func TestDiscoverResearchFailureYieldsMinimalAnalysis(t *testing.T) {
	c := New(registryWith(&stubCompany{name: model.SourceApollo}), &stubAnalyzer{err: assert.AnError})

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	require.NotNil(t, a)
	assert.Empty(t, a.PrioritySignals)
	assert.Equal(t, model.ConfidenceLow, a.OverallSignalStrength)
	assert.Equal(t, model.SourceUnknown, a.Source)
}

func TestDiscoverResearchReportMerged(t *testing.T) {
	analyzer := &stubAnalyzer{report: &model.SignalReport{
		CompanyName:           "Acme Corp",
		CompanyDomain:         "acme.com",
		PrioritySignals:       []model.Signal{{Title: "Funding", Weight: 5}},
		TotalSignalsFound:     1,
		OverallSignalStrength: model.ConfidenceMedium,
	}}
	c := New(registryWith(&stubCompany{name: model.SourceApollo}), analyzer)

	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	assert.Equal(t, "acme.com", analyzer.domain)
	assert.Equal(t, "Acme Corp", a.CompanyName)
	assert.Equal(t, model.SourceWeb, a.Source)
	require.Len(t, a.PrioritySignals, 1)
}

func TestDiscoverPersonLinkedInPreferredForSocial(t *testing.T) {
	social := &stubSocial{posts: []model.SocialPost{{Text: "post", PostedAt: "2026-08-20"}}}
	r := registryWith(&stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:        "Acme Corporation",
		Domain:      "acme.com",
		LinkedInURL: "https://linkedin.com/company/acme",
	}})
	r.RegisterPerson(&stubPerson{rec: &model.PersonRecord{
		FirstName:   "Jane",
		LastName:    "Doe",
		Title:       "VP",
		LinkedInURL: "https://linkedin.com/in/janedoe",
	}})
	r.RegisterSocial(social)

	c := New(r, nil)
	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})

	assert.Equal(t, "https://linkedin.com/in/janedoe", social.url)
	require.Len(t, a.LinkedInRecentPosts, 1)
	require.Len(t, a.Prospects, 1)
	assert.Equal(t, "Jane Doe", a.Prospects[0].Name)
	require.NotNil(t, a.CompanyActivity)
}

func TestDiscoverCompanyLinkedInFallbackForSocial(t *testing.T) {
	social := &stubSocial{}
	r := registryWith(&stubCompany{name: model.SourceApollo, rec: &model.CompanyRecord{
		Name:        "Acme Corporation",
		Domain:      "acme.com",
		LinkedInURL: "https://linkedin.com/company/acme",
	}})
	r.RegisterSocial(social)

	c := New(r, nil)
	c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	assert.Equal(t, "https://linkedin.com/company/acme", social.url)
}

func TestDiscoverEmailVerificationAttached(t *testing.T) {
	r := registryWith(&stubCompany{name: model.SourceApollo})
	r.RegisterVerify(&stubVerify{v: &model.EmailVerification{Email: "jane@acme.com", Status: "valid", Score: 95}})

	c := New(r, nil)
	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	require.NotNil(t, a.EmailVerification)
	assert.Equal(t, "valid", a.EmailVerification.Status)
}

func TestDiscoverAllProvidersDown(t *testing.T) {
	r := registryWith(&stubCompany{name: model.SourceApollo, err: assert.AnError})
	r.RegisterPerson(&stubPerson{err: assert.AnError})

	c := New(r, &stubAnalyzer{err: assert.AnError})
	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})

	require.NotNil(t, a)
	assert.Equal(t, model.SourceUnknown, a.Source)
	assert.Equal(t, model.SourceUnknown, a.CompanyName)
	assert.Equal(t, "acme.com", a.CompanyDomain, "domain always derivable from the email")
	assert.Empty(t, a.PrioritySignals)
}

func TestDiscoverProviderMissLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := registryWith(
		&stubCompany{name: model.SourceApollo},
		&stubCompany{name: model.SourceExplorium, rec: &model.CompanyRecord{
			Name:   "Acme Corporation",
			Domain: "acme.com",
		}},
	)
	r.RegisterPerson(&stubPerson{})

	c := New(r, nil)
	a := c.Discover(context.Background(), Request{Email: "jane@acme.com"})
	require.NotNil(t, a)
	assert.Equal(t, "Acme Corporation", a.CompanyName)

	misses := logs.FilterMessage("provider returned no data").All()
	require.Len(t, misses, 2)
	assert.Equal(t, model.SourceApollo, misses[0].ContextMap()["provider"])
	assert.Equal(t, "enrich", misses[0].ContextMap()["operation"])
	assert.Equal(t, "match_person", misses[1].ContextMap()["operation"])
}

func TestBuildActivity(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, buildActivity(nil, now))

	active := make([]model.SocialPost, 7)
	for i := range active {
		active[i] = model.SocialPost{PostedAt: "2026-08-15"}
	}
	a := buildActivity(active, now)
	require.NotNil(t, a)
	assert.Equal(t, 7, a.PostsLast90Days)
	assert.Equal(t, "active", a.ActivityLevel)
	assert.Equal(t, "2026-08-15", a.LastPostAt)

	occasional := buildActivity([]model.SocialPost{{PostedAt: "2026-07-01"}}, now)
	assert.Equal(t, "occasional", occasional.ActivityLevel)

	dormant := buildActivity([]model.SocialPost{{PostedAt: "2024-01-01"}}, now)
	assert.Equal(t, "dormant", dormant.ActivityLevel)
	assert.Equal(t, 0, dormant.PostsLast90Days)
}

func TestDistrustReason(t *testing.T) {
	trusted := &model.CompanyRecord{Name: "Acme Corporation", Domain: "acme.com"}
	assert.Empty(t, distrustReason(trusted, "acme.com", "Acme"))

	mismatch := &model.CompanyRecord{Name: "Acme Corporation", Domain: "other.com"}
	assert.Contains(t, distrustReason(mismatch, "acme.com", ""), "domain mismatch")

	wrongName := &model.CompanyRecord{Name: "Globex", Domain: "acme.com"}
	assert.Contains(t, distrustReason(wrongName, "acme.com", "Acme"), "does not contain")

	bareDomain := &model.CompanyRecord{Name: "acme.com", Domain: "acme.com"}
	assert.Contains(t, distrustReason(bareDomain, "acme.com", ""), "bare domain")

	// Name check is case-insensitive.
	caseOnly := &model.CompanyRecord{Name: "ACME CORPORATION", Domain: "acme.com"}
	assert.Empty(t, distrustReason(caseOnly, "acme.com", "acme"))
}
