package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatName is the display name every chat starts with.
const DefaultChatName = "New Chat"

// Message is one role-tagged utterance within a chat. Position in the
// Messages array is authoritative for ordering; Timestamp is display only.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Messages is the ordered message array, stored as a single jsonb column so
// one UPDATE persists the whole conversation.
type Messages []Message

func (m Messages) Value() (driver.Value, error) {
	if m == nil {
		m = Messages{}
	}
	return json.Marshal(m)
}

func (m *Messages) Scan(value interface{}) error {
	if value == nil {
		*m = Messages{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for messages: %T", value)
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return err
	}
	return nil
}

type Chat struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Messages  Messages  `json:"messages" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Chat) BeforeCreate(tx *gorm.DB) (err error) {
	// Ensure UUID extension is enabled
	return tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error
}

// SeedMessage is the single system message every new chat is created with.
func SeedMessage(now time.Time) Message {
	return Message{Role: RoleSystem, Content: "Chat started", Timestamp: now}
}
