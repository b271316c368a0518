// deepvision/types/chat.go
package types

import "deepvision/deepvision/sources/psql/models"

type RenameChatRequest struct {
	ChatID string `json:"chatId"`
	Name   string `json:"name"`
}

type DeleteChatRequest struct {
	ChatID string `json:"chatId"`
}

type SendMessageRequest struct {
	ChatID string `json:"chatId"`
	Prompt string `json:"prompt"`
}

// ChatResponse is the envelope for create/rename/delete. Business failures
// come back as success=false with a message; callers must check Success, not
// the transport status.
type ChatResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Chat    *models.Chat `json:"chat,omitempty"`
}

type ChatListResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    []models.Chat `json:"data,omitempty"`
}

// AssistantResponse carries only the newly created assistant message.
type AssistantResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *models.Message `json:"data,omitempty"`
}
