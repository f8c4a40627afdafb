package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/convodoc/internal/domain/ai"
)

// defaultOrder is used when a request has no preference or the preferred
// provider is not configured.
var defaultOrder = []ai.Provider{ai.ProviderOpenAI, ai.ProviderAnthropic}

// Gateway routes completions to configured providers with one cross-provider
// hop on failure.
type Gateway struct {
	clients map[ai.Provider]ai.Client
	logger  *slog.Logger
}

// New registers clients by provider; nil clients are ignored.
func New(logger *slog.Logger, clients ...ai.Client) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{clients: make(map[ai.Provider]ai.Client), logger: logger}
	for _, c := range clients {
		if c == nil {
			continue
		}
		g.clients[c.Provider()] = c
	}
	return g
}

// Configured reports whether at least one provider can be called.
func (g *Gateway) Configured() bool { return len(g.clients) > 0 }

// Providers lists configured providers in attempt order for a preference.
func (g *Gateway) Providers(preferred ai.Provider) []ai.Provider {
	var out []ai.Provider
	if _, ok := g.clients[preferred]; ok {
		out = append(out, preferred)
	}
	for _, p := range defaultOrder {
		if _, ok := g.clients[p]; ok && p != preferred {
			out = append(out, p)
		}
	}
	return out
}

// Call tries each configured provider at most once, preferred first.
func (g *Gateway) Call(ctx context.Context, req ai.Request) (ai.Response, error) {
	order := g.Providers(req.Preferred)
	if len(order) == 0 {
		return ai.Response{}, ai.ErrNoProviderConfigured
	}

	var errs []error
	for i, p := range order {
		content, model, err := g.clients[p].Complete(ctx, req.SystemPrompt, req.Prompt)
		if err == nil {
			return ai.Response{Content: content, Model: model, Provider: p}, nil
		}
		errs = append(errs, err)
		if i+1 < len(order) {
			g.logger.WarnContext(ctx, "ai provider failed, trying fallback",
				"provider", p, "fallback", order[i+1], "error", err)
		}
	}
	return ai.Response{}, fmt.Errorf("all ai providers failed: %w", errors.Join(errs...))
}
