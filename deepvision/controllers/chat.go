// deepvision/controllers/chat.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deepvision/deepvision/services/llm"
	"deepvision/deepvision/sources/psql/models"
)

// ErrValidation marks request problems caught before any store access.
var ErrValidation = errors.New("validation failed")

// ChatStore is the subset of the chat DAO the controller needs. Every lookup
// is scoped by (chatID, userID) so no chat is reachable across users.
type ChatStore interface {
	Create(ctx context.Context, userID string) (*models.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]models.Chat, error)
	Get(ctx context.Context, chatID, userID string) (*models.Chat, error)
	Rename(ctx context.Context, chatID, userID, name string) (*models.Chat, error)
	Delete(ctx context.Context, chatID, userID string) (*models.Chat, error)
	SaveMessages(ctx context.Context, chat *models.Chat) error
}

// Completer produces one assistant reply for an ordered conversation.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (llm.Message, error)
}

type ChatController struct {
	store     ChatStore
	completer Completer
}

func NewChatController(store ChatStore, completer Completer) *ChatController {
	return &ChatController{store: store, completer: completer}
}

// CreateChat creates a chat with the default name and one seed system message.
func (c *ChatController) CreateChat(ctx context.Context, userID string) (*models.Chat, error) {
	return c.store.Create(ctx, userID)
}

// ListChats returns the caller's chats, most recently updated first.
func (c *ChatController) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	return c.store.ListByUser(ctx, userID)
}

// RenameChat updates the display name. Both fields are required.
func (c *ChatController) RenameChat(ctx context.Context, userID, chatID, name string) (*models.Chat, error) {
	if chatID == "" || name == "" {
		return nil, fmt.Errorf("%w: chat ID and new name are required", ErrValidation)
	}
	return c.store.Rename(ctx, chatID, userID, name)
}

// DeleteChat removes the chat and returns the deleted snapshot.
func (c *ChatController) DeleteChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat ID is required", ErrValidation)
	}
	return c.store.Delete(ctx, chatID, userID)
}

// SendMessage appends the user's prompt, asks the completion provider for a
// reply over the full conversation, appends that reply and returns it.
//
// The user message is persisted before the provider call, so a provider
// failure leaves exactly one new message behind. The final save writes the
// array carrying both appended messages in one update.
func (c *ChatController) SendMessage(ctx context.Context, userID, chatID, prompt string) (*models.Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat ID is required", ErrValidation)
	}
	chat, err := c.store.Get(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	chat.Messages = append(chat.Messages, models.Message{
		Role:      models.RoleUser,
		Content:   prompt,
		Timestamp: time.Now(),
	})
	if err := c.store.SaveMessages(ctx, chat); err != nil {
		return nil, err
	}

	// Forward role+content pairs only; timestamps are a display concern.
	history := make([]llm.Message, len(chat.Messages))
	for i, m := range chat.Messages {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	reply, err := c.completer.Complete(ctx, history)
	if err != nil {
		return nil, err
	}

	assistant := models.Message{
		Role:      models.RoleAssistant,
		Content:   reply.Content,
		Timestamp: time.Now(),
	}
	chat.Messages = append(chat.Messages, assistant)
	if err := c.store.SaveMessages(ctx, chat); err != nil {
		return nil, err
	}
	return &assistant, nil
}
