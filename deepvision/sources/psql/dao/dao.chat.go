package dao

import (
	"context"
	"errors"
	"time"

	"deepvision/deepvision/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrChatNotFound covers both a missing id and an id owned by someone else.
// Callers must not be able to tell the two apart.
var ErrChatNotFound = errors.New("chat not found")

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

// Create inserts a chat with the default name and a single seed system message.
func (d *ChatDAO) Create(ctx context.Context, userID string) (*models.Chat, error) {
	chat := &models.Chat{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     models.DefaultChatName,
		Messages: models.Messages{models.SeedMessage(time.Now())},
	}
	if err := d.DB.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// ListByUser returns all chats of one user, most recently updated first.
func (d *ChatDAO) ListByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := d.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// Get fetches one chat scoped by (id, owner).
func (d *ChatDAO) Get(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	id, err := uuid.Parse(chatID)
	if err != nil {
		return nil, ErrChatNotFound
	}
	var chat models.Chat
	err = d.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Rename updates the display name and returns the updated chat.
func (d *ChatDAO) Rename(ctx context.Context, chatID, userID, name string) (*models.Chat, error) {
	chat, err := d.Get(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	chat.Name = name
	if err := d.DB.WithContext(ctx).Model(chat).Update("name", name).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// Delete removes the chat and returns its last snapshot.
func (d *ChatDAO) Delete(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := d.Get(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if err := d.DB.WithContext(ctx).Delete(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// SaveMessages writes the chat's whole message array in one update and bumps
// updated_at so the client's most-recent ordering follows activity.
func (d *ChatDAO) SaveMessages(ctx context.Context, chat *models.Chat) error {
	return d.DB.WithContext(ctx).Model(chat).
		Updates(map[string]interface{}{
			"messages":   chat.Messages,
			"updated_at": time.Now(),
		}).Error
}
