package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"deepvision/deepvision/services/llm"
	"deepvision/deepvision/sources/psql/dao"
	"deepvision/deepvision/sources/psql/models"
	httputils "deepvision/deepvision/utils/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory ChatStore with the same ownership scoping as the
// real DAO: a wrong owner is indistinguishable from a missing id.
type fakeStore struct {
	chats map[string]*models.Chat
}

func newFakeStore() *fakeStore {
	return &fakeStore{chats: make(map[string]*models.Chat)}
}

func (f *fakeStore) Create(ctx context.Context, userID string) (*models.Chat, error) {
	chat := &models.Chat{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      models.DefaultChatName,
		Messages:  models.Messages{models.SeedMessage(time.Now())},
		UpdatedAt: time.Now(),
	}
	f.chats[chat.ID.String()] = chat
	return cloneChat(chat), nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var out []models.Chat
	for _, chat := range f.chats {
		if chat.UserID == userID {
			out = append(out, *cloneChat(chat))
		}
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok || chat.UserID != userID {
		return nil, dao.ErrChatNotFound
	}
	return cloneChat(chat), nil
}

func (f *fakeStore) Rename(ctx context.Context, chatID, userID, name string) (*models.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok || chat.UserID != userID {
		return nil, dao.ErrChatNotFound
	}
	chat.Name = name
	return cloneChat(chat), nil
}

func (f *fakeStore) Delete(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok || chat.UserID != userID {
		return nil, dao.ErrChatNotFound
	}
	delete(f.chats, chatID)
	return chat, nil
}

func (f *fakeStore) SaveMessages(ctx context.Context, chat *models.Chat) error {
	stored, ok := f.chats[chat.ID.String()]
	if !ok {
		return dao.ErrChatNotFound
	}
	stored.Messages = append(models.Messages(nil), chat.Messages...)
	stored.UpdatedAt = time.Now()
	return nil
}

func cloneChat(chat *models.Chat) *models.Chat {
	out := *chat
	out.Messages = append(models.Messages(nil), chat.Messages...)
	return &out
}

type fakeCompleter struct {
	reply llm.Message
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	f.calls++
	if f.err != nil {
		return llm.Message{}, f.err
	}
	return f.reply, nil
}

func TestCreateChatSeedsSystemMessage(t *testing.T) {
	store := newFakeStore()
	ctrl := NewChatController(store, &fakeCompleter{})

	chat, err := ctrl.CreateChat(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "New Chat", chat.Name)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, models.RoleSystem, chat.Messages[0].Role)
}

func TestRenameChatValidation(t *testing.T) {
	ctrl := NewChatController(newFakeStore(), &fakeCompleter{})

	_, err := ctrl.RenameChat(context.Background(), "user-1", "", "name")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ctrl.RenameChat(context.Background(), "user-1", "some-id", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRenameChatDoesNotLeakOtherUsersChats(t *testing.T) {
	store := newFakeStore()
	ctrl := NewChatController(store, &fakeCompleter{})

	owned, err := store.Create(context.Background(), "owner")
	require.NoError(t, err)

	// A chat owned by someone else and a chat that doesn't exist must fail
	// identically.
	_, errForeign := ctrl.RenameChat(context.Background(), "intruder", owned.ID.String(), "stolen")
	_, errMissing := ctrl.RenameChat(context.Background(), "intruder", uuid.NewString(), "stolen")
	assert.ErrorIs(t, errForeign, dao.ErrChatNotFound)
	assert.ErrorIs(t, errMissing, dao.ErrChatNotFound)

	assert.Equal(t, "New Chat", store.chats[owned.ID.String()].Name)
}

func TestDeleteChatDoesNotLeakOtherUsersChats(t *testing.T) {
	store := newFakeStore()
	ctrl := NewChatController(store, &fakeCompleter{})

	owned, err := store.Create(context.Background(), "owner")
	require.NoError(t, err)

	_, errForeign := ctrl.DeleteChat(context.Background(), "intruder", owned.ID.String())
	_, errMissing := ctrl.DeleteChat(context.Background(), "intruder", uuid.NewString())
	assert.ErrorIs(t, errForeign, dao.ErrChatNotFound)
	assert.ErrorIs(t, errMissing, dao.ErrChatNotFound)
	assert.Contains(t, store.chats, owned.ID.String())

	snapshot, err := ctrl.DeleteChat(context.Background(), "owner", owned.ID.String())
	require.NoError(t, err)
	assert.Equal(t, owned.ID, snapshot.ID)
	assert.NotContains(t, store.chats, owned.ID.String())
}

func TestSendMessageAppendsUserAndAssistant(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: llm.Message{Role: "assistant", Content: "Hi there"}}
	ctrl := NewChatController(store, completer)

	chat, err := store.Create(context.Background(), "user-1")
	require.NoError(t, err)

	message, err := ctrl.SendMessage(context.Background(), "user-1", chat.ID.String(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, message.Role)
	assert.Equal(t, "Hi there", message.Content)

	stored := store.chats[chat.ID.String()]
	require.Len(t, stored.Messages, 3)
	assert.Equal(t, models.RoleSystem, stored.Messages[0].Role)
	assert.Equal(t, models.RoleUser, stored.Messages[1].Role)
	assert.Equal(t, "Hello", stored.Messages[1].Content)
	assert.Equal(t, models.RoleAssistant, stored.Messages[2].Role)
}

func TestSendMessageProviderFailureKeepsUserMessage(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{err: errors.New("provider exploded")}
	ctrl := NewChatController(store, completer)

	chat, err := store.Create(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = ctrl.SendMessage(context.Background(), "user-1", chat.ID.String(), "Hello")
	require.Error(t, err)

	// The user message was persisted before the completion call; only the
	// assistant append is skipped.
	stored := store.chats[chat.ID.String()]
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, models.RoleUser, stored.Messages[1].Role)
}

func TestSendMessageQuotaErrorIsRecognizable(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{err: &httputils.StatusError{Code: http.StatusPaymentRequired}}
	ctrl := NewChatController(store, completer)

	chat, err := store.Create(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = ctrl.SendMessage(context.Background(), "user-1", chat.ID.String(), "Hello")
	require.Error(t, err)
	assert.True(t, llm.IsQuotaExceeded(err))
}

func TestSendMessageUnknownChat(t *testing.T) {
	ctrl := NewChatController(newFakeStore(), &fakeCompleter{})

	_, err := ctrl.SendMessage(context.Background(), "user-1", uuid.NewString(), "Hello")
	assert.ErrorIs(t, err, dao.ErrChatNotFound)
}
