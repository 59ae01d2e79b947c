package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/pkg/perplexity"
)

// PerplexityAdapter exposes Perplexity web search as a research provider.
type PerplexityAdapter struct {
	client   perplexity.Client
	breakers *resilience.ServiceBreakers
	recency  string
}

// NewPerplexityAdapter wraps a Perplexity client. recency restricts web
// search results ("month", "week", "day") and may be empty.
func NewPerplexityAdapter(client perplexity.Client, breakers *resilience.ServiceBreakers, recency string) *PerplexityAdapter {
	return &PerplexityAdapter{client: client, breakers: breakers, recency: recency}
}

// Name implements ResearchProvider.
func (a *PerplexityAdapter) Name() string { return model.SourceWeb }

// Research runs an open-web research prompt and returns the answer text
// plus source citations.
func (a *PerplexityAdapter) Research(ctx context.Context, prompt string) (*ResearchResult, error) {
	resp, err := call(ctx, a.breakers, model.SourceWeb, "chat_completion", func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return a.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
			Messages:            []perplexity.Message{{Role: "user", Content: prompt}},
			SearchRecencyFilter: a.recency,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("provider: research returned no choices")
	}
	return &ResearchResult{
		Text:      resp.Choices[0].Message.Content,
		Citations: resp.Citations,
	}, nil
}
