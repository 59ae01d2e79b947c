// Package provider defines the enrichment provider interfaces and the
// resilient adapters that wrap the raw API clients. Adapters classify
// HTTP failures, retry transient ones, and sit behind per-service
// circuit breakers so one degraded provider cannot stall a session.
package provider

import (
	"context"

	"github.com/sells-group/enrich-cli/internal/model"
)

// CompanyProvider enriches a company by domain.
type CompanyProvider interface {
	Name() string
	Enrich(ctx context.Context, domain string) (*model.CompanyRecord, error)
}

// PersonProvider looks up a person by their email address.
type PersonProvider interface {
	Name() string
	MatchByEmail(ctx context.Context, email string) (*model.PersonRecord, error)
}

// VerifyProvider checks email deliverability.
type VerifyProvider interface {
	Name() string
	Verify(ctx context.Context, email string) (*model.EmailVerification, error)
}

// SocialProvider fetches recent public activity for a company.
type SocialProvider interface {
	Name() string
	RecentPosts(ctx context.Context, linkedInURL string, limit int) ([]model.SocialPost, error)
}

// TechnographicsProvider reports detected technology stack entries.
type TechnographicsProvider interface {
	Name() string
	Technologies(ctx context.Context, domain string) ([]model.Technology, error)
}

// ResearchResult is the raw output of a web research pass.
type ResearchResult struct {
	Text      string
	Citations []string
}

// ResearchProvider runs open-web research about a company.
type ResearchProvider interface {
	Name() string
	Research(ctx context.Context, prompt string) (*ResearchResult, error)
}
