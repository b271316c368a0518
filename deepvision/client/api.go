// deepvision/client/api.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"deepvision/deepvision/sources/psql/models"
	"deepvision/deepvision/types"
)

// APIError is a business-logic failure reported by the chat service. The
// envelope carries success=false and a message; StatusCode keeps the raw
// transport status so quota (402) stays recognizable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsQuotaExceeded reports whether err is the completion provider signaling an
// exhausted account balance.
func IsQuotaExceeded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusPaymentRequired
}

// Client talks to the chat service with a bearer token identity.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) CreateChat(ctx context.Context) (*models.Chat, error) {
	var resp types.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/create", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	var resp types.ChatListResponse
	if err := c.do(ctx, http.MethodGet, "/chat/get", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) RenameChat(ctx context.Context, chatID, name string) (*models.Chat, error) {
	var resp types.ChatResponse
	req := types.RenameChatRequest{ChatID: chatID, Name: name}
	if err := c.do(ctx, http.MethodPost, "/chat/rename", req, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

func (c *Client) DeleteChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var resp types.ChatResponse
	req := types.DeleteChatRequest{ChatID: chatID}
	if err := c.do(ctx, http.MethodPost, "/chat/delete", req, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID, prompt string) (*models.Message, error) {
	var resp types.AssistantResponse
	req := types.SendMessageRequest{ChatID: chatID, Prompt: prompt}
	if err := c.do(ctx, http.MethodPost, "/chat/ai", req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// do runs one request and decodes the success envelope. A success=false
// payload becomes an *APIError regardless of the transport status.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Chat    json.RawMessage `json:"chat"`
		Data    json.RawMessage `json:"data"`
	}
	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Bytes(), &envelope); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if !envelope.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	if out != nil {
		return json.Unmarshal(raw.Bytes(), out)
	}
	return nil
}
