package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient streams from the Gemini API.
type GeminiClient struct {
	model  string
	client *genai.Client
}

// NewGeminiClient builds a client for the Gemini developer API.
func NewGeminiClient(ctx context.Context, s Settings) (*GeminiClient, error) {
	if s.APIKey == "" {
		return nil, &AuthenticationError{Err: ErrMissingAPIKey}
	}
	model := s.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{model: model, client: client}, nil
}

func (c *GeminiClient) Stream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil gemini client")
	}
	out := make(chan Chunk)
	go func() {
		defer close(out)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), nil) {
			if err != nil {
				send(ctx, out, Chunk{Err: classifyGeminiError(err)})
				return
			}
			if reason := geminiBlockReason(resp); reason != "" {
				send(ctx, out, Chunk{Err: &GenerationError{Err: fmt.Errorf("response blocked: %s", reason)}})
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !send(ctx, out, Chunk{Text: text}) {
				return
			}
		}
	}()
	return out, nil
}

// geminiBlockReason returns why a fragment was withheld, or "" for a normal fragment.
func geminiBlockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return string(reason)
	}
	return ""
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden,
			apiErr.Status == "UNAUTHENTICATED", apiErr.Status == "PERMISSION_DENIED":
			return &AuthenticationError{Err: err}
		case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
			return &AuthenticationError{Err: err}
		}
	}
	return &GenerationError{Err: err}
}
