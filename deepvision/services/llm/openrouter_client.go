// deepvision/services/llm/openrouter_client.go
package llm

import (
	"context"
	"fmt"

	"deepvision/deepvision/config"
	httputils "deepvision/deepvision/utils/http"
	"deepvision/deepvision/utils/logging"
)

type OpenRouterClient struct {
	baseURL string
	apiKey  string
	model   string
	headers map[string]string
}

// NewOpenRouterClient returns a client for the OpenRouter chat completions
// endpoint (OpenAI-compatible base path, usually https://openrouter.ai/api/v1).
func NewOpenRouterClient(cfg config.ProviderConfig) *OpenRouterClient {
	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}
	return &OpenRouterClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		headers: headers,
	}
}

// Complete runs one non-streaming chat completion over the full conversation
// and returns the assistant message. Content is normalized to "" when the
// provider omits it.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []Message) (Message, error) {
	defer logging.LogDuration(ctx, "openrouter_complete")()

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req := ChatRequest{Model: c.model, Messages: messages}

	var resp ChatResponse
	if err := httputils.PostJSONWithAuth(url, c.apiKey, c.headers, req, &resp); err != nil {
		return Message{}, err
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("completion returned no choices")
	}
	out := resp.Choices[0].Message
	if out.Role == "" {
		out.Role = "assistant"
	}
	return out, nil
}
