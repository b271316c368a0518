// deepvision/services/llm/llm.go
package llm

import (
	"errors"
	"net/http"

	httputils "deepvision/deepvision/utils/http"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse mirrors the OpenAI-compatible completion shape.
type ChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// IsQuotaExceeded reports whether err is the provider telling us the account
// balance is exhausted (HTTP 402).
func IsQuotaExceeded(err error) bool {
	var statusErr *httputils.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusPaymentRequired
}
