package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/discover"
	"github.com/sells-group/enrich-cli/internal/provider"
	"github.com/sells-group/enrich-cli/internal/reconcile"
	"github.com/sells-group/enrich-cli/internal/research"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/session"
	"github.com/sells-group/enrich-cli/internal/skiplist"
	"github.com/sells-group/enrich-cli/internal/store"
	anthropicpkg "github.com/sells-group/enrich-cli/pkg/anthropic"
	"github.com/sells-group/enrich-cli/pkg/apify"
	"github.com/sells-group/enrich-cli/pkg/apollo"
	"github.com/sells-group/enrich-cli/pkg/explorium"
	"github.com/sells-group/enrich-cli/pkg/perplexity"
	"github.com/sells-group/enrich-cli/pkg/snov"
)

// engine bundles everything a command needs to run sessions.
type engine struct {
	Scheduler *session.Scheduler
	Registry  *session.Registry
	Providers *provider.Registry
}

// initEngine builds the provider registry, discovery coordinator, and
// session scheduler from the loaded config. Providers without keys are
// simply not registered; the coordinator treats their absence like any
// other miss.
func initEngine(journal session.Journal) (*engine, error) {
	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{})
	providers := provider.NewRegistry()

	if cfg.Apollo.Key != "" {
		client := apollo.NewClient(cfg.Apollo.Key,
			apollo.WithBaseURL(cfg.Apollo.BaseURL),
			apollo.WithRateLimit(cfg.Apollo.RateLimit),
		)
		adapter := provider.NewApolloAdapter(client, breakers)
		providers.RegisterCompany(adapter)
		providers.RegisterPerson(adapter)
	}
	if cfg.Snov.ClientID != "" && cfg.Snov.ClientSecret != "" {
		client := snov.NewClient(cfg.Snov.ClientID, cfg.Snov.ClientSecret, snov.WithBaseURL(cfg.Snov.BaseURL))
		adapter := provider.NewSnovAdapter(client, breakers)
		providers.RegisterPerson(adapter)
		providers.RegisterVerify(adapter)
	}
	if cfg.Explorium.Key != "" {
		client := explorium.NewClient(cfg.Explorium.Key,
			explorium.WithBaseURL(cfg.Explorium.BaseURL),
			explorium.WithRateLimit(cfg.Explorium.RateLimit, int(cfg.Explorium.RateLimit)),
		)
		adapter := provider.NewExploriumAdapter(client, breakers)
		providers.RegisterCompany(adapter)
		providers.RegisterTech(adapter)
	}
	if cfg.Apify.Token != "" {
		client := apify.NewClient(cfg.Apify.Token,
			apify.WithBaseURL(cfg.Apify.BaseURL),
			apify.WithActor(cfg.Apify.PostsActor),
		)
		providers.RegisterSocial(provider.NewApifyAdapter(client, breakers))
	}

	var analyzer discover.Analyzer
	if cfg.Perplexity.Key != "" {
		webClient := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		web := provider.NewPerplexityAdapter(webClient, breakers, cfg.Perplexity.RecencyFilter)
		providers.RegisterResearch(web)

		var llm anthropicpkg.Client
		if cfg.Anthropic.Key != "" {
			llm = anthropicpkg.NewClient(cfg.Anthropic.Key)
		}
		analyzer = research.NewAnalyzer(web, llm, research.WithModel(cfg.Anthropic.Model))
	}

	if len(providers.Names()) == 0 {
		zap.L().Warn("no providers configured, enrichments will be empty")
	} else {
		zap.L().Info("providers registered", zap.Strings("providers", providers.Names()))
	}

	coordinator := discover.New(providers, analyzer,
		discover.WithPostsLimit(cfg.Apify.PostsLimit),
	)

	skip := skiplist.New()
	if cfg.SkipList.Path != "" {
		if err := skip.LoadOverlay(cfg.SkipList.Path); err != nil {
			return nil, eris.Wrap(err, "load skip list overlay")
		}
	}

	registry := session.NewRegistry()
	opts := []session.Option{}
	if cfg.Session.RowTimeoutSecs > 0 {
		opts = append(opts, session.WithRowTimeout(time.Duration(cfg.Session.RowTimeoutSecs)*time.Second))
	}
	if journal != nil {
		opts = append(opts, session.WithJournal(journal))
	}

	scheduler := session.New(coordinator, reconcile.NewReconciler(), skip, registry, opts...)

	return &engine{Scheduler: scheduler, Registry: registry, Providers: providers}, nil
}

// initStore opens the configured store backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "", "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", cfg.Store.Driver)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
