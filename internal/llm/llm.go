package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-1.5-pro"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Chunk is one streamed text fragment. A chunk with Err set is the last one
// sent before the channel closes.
type Chunk struct {
	Text string
	Err  error
}

// Client streams a generation for a prompt. Every call opens a new request;
// the returned channel is closed when the service signals completion.
type Client interface {
	Stream(ctx context.Context, prompt string) (<-chan Chunk, error)
}

// Settings is everything needed to build a Client. APIKey is already resolved.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Factory builds a Client from explicit settings.
type Factory func(ctx context.Context, s Settings) (Client, error)

// New is the default Factory.
func New(ctx context.Context, s Settings) (Client, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, &AuthenticationError{Err: ErrMissingAPIKey}
	}
	switch s.Provider {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, s)
	case ProviderOpenAI:
		return NewOpenAIClient(s)
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: gemini, openai)", s.Provider)
	}
}

// KeySource records where a resolved API key came from.
type KeySource string

const (
	KeySourceNone        KeySource = ""
	KeySourceInput       KeySource = "input"
	KeySourceEnvironment KeySource = "environment"
)

// ResolveAPIKey applies the key precedence: explicit input, then environment.
func ResolveAPIKey(explicit, environment string) (string, KeySource) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, KeySourceInput
	}
	if key := strings.TrimSpace(environment); key != "" {
		return key, KeySourceEnvironment
	}
	return "", KeySourceNone
}

// send delivers c unless the consumer has gone away.
func send(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
