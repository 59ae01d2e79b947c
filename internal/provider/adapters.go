package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/apify"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/explorium"
	"github.com/sells-group/enrich-cli/pkg/snov"
)

// call wraps one provider operation with status classification, retry
// and the service's circuit breaker. All adapters funnel through here.
func call[T any](ctx context.Context, breakers *resilience.ServiceBreakers, service, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	policy := resilience.ProviderRetryPolicy()
	policy.OnRetry = resilience.RetryLogger(service, operation)

	breaker := breakers.Get(service)
	return resilience.DoVal(ctx, policy, func(ctx context.Context) (T, error) {
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (T, error) {
			v, err := fn(ctx)
			if err != nil {
				var zero T
				return zero, resilience.Classify(err)
			}
			return v, nil
		})
	})
}

// ApolloAdapter exposes Apollo as company and person providers.
type ApolloAdapter struct {
	client   apollo.Client
	breakers *resilience.ServiceBreakers
}

// NewApolloAdapter wraps an Apollo client.
func NewApolloAdapter(client apollo.Client, breakers *resilience.ServiceBreakers) *ApolloAdapter {
	return &ApolloAdapter{client: client, breakers: breakers}
}

// Name implements CompanyProvider and PersonProvider.
func (a *ApolloAdapter) Name() string { return model.SourceApollo }

// Enrich looks up a company by domain.
func (a *ApolloAdapter) Enrich(ctx context.Context, domain string) (*model.CompanyRecord, error) {
	org, err := call(ctx, a.breakers, model.SourceApollo, "enrich_organization", func(ctx context.Context) (*apollo.Organization, error) {
		return a.client.EnrichOrganization(ctx, apollo.OrganizationRequest{Domain: domain})
	})
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, nil
	}
	return &model.CompanyRecord{
		Name:        org.Name,
		Domain:      model.NormalizeDomain(firstNonEmpty(org.PrimaryDomain, org.WebsiteURL)),
		Industry:    org.Industry,
		Country:     org.Country,
		Competitors: org.Competitors,
		LinkedInURL: org.LinkedInURL,
	}, nil
}

// MatchByEmail looks up a person by email.
func (a *ApolloAdapter) MatchByEmail(ctx context.Context, email string) (*model.PersonRecord, error) {
	p, err := call(ctx, a.breakers, model.SourceApollo, "match_person", func(ctx context.Context) (*apollo.Person, error) {
		return a.client.MatchPerson(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	rec := &model.PersonRecord{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Title:       p.Title,
		LinkedInURL: p.LinkedInURL,
		Country:     p.Country,
	}
	if p.Organization != nil {
		rec.CompanyName = p.Organization.Name
		rec.CompanyDomain = model.NormalizeDomain(p.Organization.PrimaryDomain)
	}
	return rec, nil
}

// SnovAdapter exposes Snov as person and verification providers.
type SnovAdapter struct {
	client   snov.Client
	breakers *resilience.ServiceBreakers
}

// NewSnovAdapter wraps a Snov client.
func NewSnovAdapter(client snov.Client, breakers *resilience.ServiceBreakers) *SnovAdapter {
	return &SnovAdapter{client: client, breakers: breakers}
}

// Name implements PersonProvider and VerifyProvider.
func (a *SnovAdapter) Name() string { return model.SourceSnov }

// MatchByEmail looks up a person profile by email.
func (a *SnovAdapter) MatchByEmail(ctx context.Context, email string) (*model.PersonRecord, error) {
	p, err := call(ctx, a.breakers, model.SourceSnov, "profile_by_email", func(ctx context.Context) (*snov.Profile, error) {
		return a.client.ProfileByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return &model.PersonRecord{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Title:       p.Position,
		CompanyName: p.CompanyName,
		Country:     p.Country,
		LinkedInURL: p.LinkedInURL,
	}, nil
}

// Verify checks deliverability for an email.
func (a *SnovAdapter) Verify(ctx context.Context, email string) (*model.EmailVerification, error) {
	v, err := call(ctx, a.breakers, model.SourceSnov, "verify_email", func(ctx context.Context) (*snov.Verification, error) {
		return a.client.VerifyEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return &model.EmailVerification{
		Email:  v.Email,
		Status: v.Status,
		Score:  v.Score,
	}, nil
}

// ExploriumAdapter exposes Explorium as company and technographics providers.
type ExploriumAdapter struct {
	client   explorium.Client
	breakers *resilience.ServiceBreakers
}

// NewExploriumAdapter wraps an Explorium client.
func NewExploriumAdapter(client explorium.Client, breakers *resilience.ServiceBreakers) *ExploriumAdapter {
	return &ExploriumAdapter{client: client, breakers: breakers}
}

// Name implements CompanyProvider and TechnographicsProvider.
func (a *ExploriumAdapter) Name() string { return model.SourceExplorium }

// Enrich matches a business by domain.
func (a *ExploriumAdapter) Enrich(ctx context.Context, domain string) (*model.CompanyRecord, error) {
	b, err := call(ctx, a.breakers, model.SourceExplorium, "match_business", func(ctx context.Context) (*explorium.Business, error) {
		return a.client.MatchBusiness(ctx, domain)
	})
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	return &model.CompanyRecord{
		Name:        b.Name,
		Domain:      model.NormalizeDomain(b.Domain),
		Industry:    b.Industry,
		Country:     b.Country,
		Competitors: b.Competitors,
		LinkedInURL: b.LinkedInURL,
	}, nil
}

// Technologies reports detected stack entries for a domain.
func (a *ExploriumAdapter) Technologies(ctx context.Context, domain string) ([]model.Technology, error) {
	b, err := call(ctx, a.breakers, model.SourceExplorium, "match_business", func(ctx context.Context) (*explorium.Business, error) {
		return a.client.MatchBusiness(ctx, domain)
	})
	if err != nil {
		return nil, err
	}
	if b == nil || b.BusinessID == "" {
		return nil, nil
	}

	techs, err := call(ctx, a.breakers, model.SourceExplorium, "technographics", func(ctx context.Context) ([]explorium.Technology, error) {
		return a.client.Technographics(ctx, b.BusinessID)
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Technology, 0, len(techs))
	for _, t := range techs {
		out = append(out, model.Technology{Name: t.Name, Category: t.Category})
	}
	return out, nil
}

// ApifyAdapter exposes the LinkedIn posts actor as a social provider.
type ApifyAdapter struct {
	client   apify.Client
	breakers *resilience.ServiceBreakers
}

// NewApifyAdapter wraps an Apify client.
func NewApifyAdapter(client apify.Client, breakers *resilience.ServiceBreakers) *ApifyAdapter {
	return &ApifyAdapter{client: client, breakers: breakers}
}

// Name implements SocialProvider.
func (a *ApifyAdapter) Name() string { return model.SourceApify }

// RecentPosts scrapes recent LinkedIn company posts.
func (a *ApifyAdapter) RecentPosts(ctx context.Context, linkedInURL string, limit int) ([]model.SocialPost, error) {
	posts, err := call(ctx, a.breakers, model.SourceApify, "company_posts", func(ctx context.Context) ([]apify.Post, error) {
		return a.client.CompanyPosts(ctx, linkedInURL, limit)
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.SocialPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, model.SocialPost{
			URL:       p.URL,
			Author:    p.Author,
			Text:      p.Text,
			PostedAt:  p.PostedAt,
			Reactions: p.Reactions,
		})
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// LogProviderMiss records a provider returning no data for a lookup.
func LogProviderMiss(provider, operation, key string) {
	zap.L().Debug("provider returned no data",
		zap.String("provider", provider),
		zap.String("operation", operation),
		zap.String("key", key),
	)
}
