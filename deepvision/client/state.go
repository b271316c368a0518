// deepvision/client/state.go
package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"deepvision/deepvision/sources/psql/models"
)

// QuotaMessage is the distinct notification for an exhausted provider balance.
const QuotaMessage = "DeepSeek balance exhausted. Please recharge!"

// Notifier receives user-visible error notifications (the toast analog).
type Notifier interface {
	Error(msg string)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(msg string)

func (f NotifierFunc) Error(msg string) { f(msg) }

// API is the slice of the chat service the state manager calls.
type API interface {
	CreateChat(ctx context.Context) (*models.Chat, error)
	ListChats(ctx context.Context) ([]models.Chat, error)
	RenameChat(ctx context.Context, chatID, name string) (*models.Chat, error)
	DeleteChat(ctx context.Context, chatID string) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID, prompt string) (*models.Message, error)
}

// State holds the client's view of the user's chats: the ordered list and the
// currently selected chat, as a separate copy. Local mutations are a
// speculative overlay; the next full fetch overwrites both.
//
// Network-backed methods are called from UI command goroutines, so all state
// access goes through one mutex. The lock is never held across a network call.
type State struct {
	api      API
	notifier Notifier

	mu          sync.Mutex
	chats       []models.Chat
	selected    *models.Chat
	hasSelected bool
}

func NewState(api API, notifier Notifier) *State {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &State{api: api, notifier: notifier}
}

// Chats returns the current chat list, most recently updated first.
func (s *State) Chats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

// Selected returns a snapshot of the selected chat, or nil when there is none.
func (s *State) Selected() *models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSelected {
		return nil
	}
	chat := *s.selected
	chat.Messages = append(models.Messages(nil), s.selected.Messages...)
	return &chat
}

// Select switches the selected chat. Purely local; never a network call.
func (s *State) Select(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(chatID)
}

func (s *State) selectLocked(chatID string) bool {
	for i := range s.chats {
		if s.chats[i].ID.String() == chatID {
			chat := s.chats[i]
			chat.Messages = append(models.Messages(nil), s.chats[i].Messages...)
			s.selected = &chat
			s.hasSelected = true
			return true
		}
	}
	return false
}

// Bootstrap loads the user's chats, auto-creating a first chat when the list
// is empty. At most one auto-create attempt is made; a backend that keeps
// returning an empty list fails the bootstrap instead of looping.
func (s *State) Bootstrap(ctx context.Context) error {
	return s.fetch(ctx, true)
}

// Refresh refetches the authoritative chat list and reconciles local state.
func (s *State) Refresh(ctx context.Context) error {
	return s.fetch(ctx, false)
}

func (s *State) fetch(ctx context.Context, allowCreate bool) error {
	chats, err := s.api.ListChats(ctx)
	if err != nil {
		s.NotifyError(err)
		return err
	}
	if len(chats) == 0 {
		if !allowCreate {
			err := errors.New("chat list still empty after auto-create")
			s.notifier.Error(err.Error())
			return err
		}
		if _, err := s.api.CreateChat(ctx); err != nil {
			s.NotifyError(err)
			return err
		}
		return s.fetch(ctx, false)
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = chats

	// Keep the current selection when it survived the refetch; otherwise
	// select the most recently updated chat.
	if s.hasSelected && s.selectLocked(s.selected.ID.String()) {
		return nil
	}
	s.selectLocked(chats[0].ID.String())
	return nil
}

// CreateChat explicitly creates a new chat and refetches the list.
func (s *State) CreateChat(ctx context.Context) error {
	if _, err := s.api.CreateChat(ctx); err != nil {
		s.NotifyError(err)
		return err
	}
	return s.Refresh(ctx)
}

// RenameChat rejects empty names locally, then updates server and local copy.
func (s *State) RenameChat(ctx context.Context, chatID, name string) error {
	if name == "" {
		s.notifier.Error("Chat name cannot be empty")
		return errors.New("empty chat name")
	}
	chat, err := s.api.RenameChat(ctx, chatID, name)
	if err != nil {
		s.NotifyError(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chats {
		if s.chats[i].ID == chat.ID {
			s.chats[i].Name = chat.Name
		}
	}
	if s.hasSelected && s.selected.ID == chat.ID {
		s.selected.Name = chat.Name
	}
	return nil
}

// DeleteChat removes the chat from the server and the local list. When the
// deleted chat was selected, selection falls back to the top of the list.
func (s *State) DeleteChat(ctx context.Context, chatID string) error {
	chat, err := s.api.DeleteChat(ctx, chatID)
	if err != nil {
		s.NotifyError(err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chats[:0]
	for _, c := range s.chats {
		if c.ID != chat.ID {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	if s.hasSelected && s.selected.ID == chat.ID {
		s.hasSelected = false
		if len(s.chats) > 0 {
			s.selectLocked(s.chats[0].ID.String())
		}
	}
	return nil
}

// AppendUserMessage applies the optimistic local append of a just-submitted
// prompt to the selected chat and to its entry in the chats list.
func (s *State) AppendUserMessage(chatID, content string) {
	msg := models.Message{Role: models.RoleUser, Content: content, Timestamp: time.Now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chats {
		if s.chats[i].ID.String() == chatID {
			s.chats[i].Messages = append(s.chats[i].Messages, msg)
		}
	}
	if s.hasSelected && s.selected.ID.String() == chatID {
		s.selected.Messages = append(s.selected.Messages, msg)
	}
}

// AppendAssistantPlaceholder adds the empty assistant message the typing
// reveal grows into. Only the selected chat's copy is touched; the list copy
// gets the authoritative message via MergeAssistantMessage.
func (s *State) AppendAssistantPlaceholder(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSelected || s.selected.ID.String() != chatID {
		return
	}
	s.selected.Messages = append(s.selected.Messages, models.Message{
		Role:      models.RoleAssistant,
		Content:   "",
		Timestamp: time.Now(),
	})
}

// SetRevealContent rewrites the content of the selected chat's trailing
// assistant message. No-ops when chatID no longer matches the selection, so a
// stale reveal can never write into another chat.
func (s *State) SetRevealContent(chatID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSelected || s.selected.ID.String() != chatID {
		return
	}
	n := len(s.selected.Messages)
	if n == 0 || s.selected.Messages[n-1].Role != models.RoleAssistant {
		return
	}
	s.selected.Messages[n-1].Content = content
}

// MergeAssistantMessage records the authoritative assistant reply in the
// chats list copy (the selected copy is driven by the reveal).
func (s *State) MergeAssistantMessage(chatID string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chats {
		if s.chats[i].ID.String() == chatID {
			s.chats[i].Messages = append(s.chats[i].Messages, msg)
			s.chats[i].UpdatedAt = msg.Timestamp
		}
	}
}

// NotifyError surfaces one notification for an API failure, with the quota
// condition mapped to its own message.
func (s *State) NotifyError(err error) {
	if IsQuotaExceeded(err) {
		s.notifier.Error(QuotaMessage)
		return
	}
	s.notifier.Error(err.Error())
}
