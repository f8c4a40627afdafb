package ai

import "context"

// Provider names a text-generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Request is a prompt pair plus an optional provider preference.
type Request struct {
	SystemPrompt string
	Prompt       string
	Preferred    Provider
}

// Response is the generated text tagged with the model and provider that produced it.
type Response struct {
	Content  string
	Model    string
	Provider Provider
}

// Gateway calls whichever configured provider can serve the request.
type Gateway interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// Client is a single provider. Complete makes exactly one round-trip.
type Client interface {
	Provider() Provider
	Complete(ctx context.Context, systemPrompt, prompt string) (content, model string, err error)
}
