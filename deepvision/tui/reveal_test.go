package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"deepvision/deepvision/sources/psql/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	chats   map[string]*models.Chat
	reply   string
	sendErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{chats: make(map[string]*models.Chat), reply: "Hi there"}
}

func (f *fakeAPI) seed(name string, updatedAt time.Time) *models.Chat {
	chat := &models.Chat{
		ID:        uuid.New(),
		UserID:    "user-1",
		Name:      name,
		Messages:  models.Messages{models.SeedMessage(updatedAt)},
		UpdatedAt: updatedAt,
	}
	f.chats[chat.ID.String()] = chat
	return chat
}

func (f *fakeAPI) CreateChat(ctx context.Context) (*models.Chat, error) {
	return f.seed(models.DefaultChatName, time.Now()), nil
}

func (f *fakeAPI) ListChats(ctx context.Context) ([]models.Chat, error) {
	var out []models.Chat
	for _, chat := range f.chats {
		out = append(out, *chat)
	}
	return out, nil
}

func (f *fakeAPI) RenameChat(ctx context.Context, chatID, name string) (*models.Chat, error) {
	chat := f.chats[chatID]
	chat.Name = name
	return chat, nil
}

func (f *fakeAPI) DeleteChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat := f.chats[chatID]
	delete(f.chats, chatID)
	return chat, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID, prompt string) (*models.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.Message{Role: models.RoleAssistant, Content: f.reply, Timestamp: time.Now()}, nil
}

func newReadyModel(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	m := NewModel(api)
	require.NoError(t, m.State().Bootstrap(context.Background()))
	m.bootstrapped = true
	return m
}

func lastContent(t *testing.T, m *Model) string {
	t.Helper()
	sel := m.State().Selected()
	require.NotNil(t, sel)
	require.NotEmpty(t, sel.Messages)
	return sel.Messages[len(sel.Messages)-1].Content
}

func TestSplitTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitTokens("a b c"))
	assert.Equal(t, []string{"Hi", "there"}, splitTokens("Hi there"))

	// The empty reply yields one empty token, not a crash.
	assert.Equal(t, []string{""}, splitTokens(""))
}

func TestRevealPassesThroughEachStateInOrder(t *testing.T) {
	api := newFakeAPI()
	chat := api.seed("a", time.Now())
	m := newReadyModel(t, api)
	chatID := chat.ID.String()

	reply := models.Message{Role: models.RoleAssistant, Content: "a b c", Timestamp: time.Now()}
	m.Update(sendResultMsg{chatID: chatID, prompt: "hi", message: &reply})

	states := []string{lastContent(t, m)}
	for i := 1; i <= 3; i++ {
		m.Update(revealTickMsg{chatID: chatID, seq: m.reveal.seq, index: i})
		states = append(states, lastContent(t, m))
	}
	assert.Equal(t, []string{"", "a", "a b", "a b c"}, states)
	assert.False(t, m.reveal.active)
}

func TestRevealTicksArrivingOutOfOrderStayMonotonic(t *testing.T) {
	api := newFakeAPI()
	chat := api.seed("a", time.Now())
	m := newReadyModel(t, api)
	chatID := chat.ID.String()

	reply := models.Message{Role: models.RoleAssistant, Content: "a b c", Timestamp: time.Now()}
	m.Update(sendResultMsg{chatID: chatID, prompt: "hi", message: &reply})

	m.Update(revealTickMsg{chatID: chatID, seq: m.reveal.seq, index: 2})
	assert.Equal(t, "a b", lastContent(t, m))

	// A late, lower-index tick must not rewind the reveal.
	m.Update(revealTickMsg{chatID: chatID, seq: m.reveal.seq, index: 1})
	assert.Equal(t, "a b", lastContent(t, m))
}

func TestEmptyReplyRendersEmptyAssistantBubble(t *testing.T) {
	api := newFakeAPI()
	chat := api.seed("a", time.Now())
	m := newReadyModel(t, api)
	chatID := chat.ID.String()

	reply := models.Message{Role: models.RoleAssistant, Content: "", Timestamp: time.Now()}
	m.Update(sendResultMsg{chatID: chatID, prompt: "hi", message: &reply})

	sel := m.State().Selected()
	require.Equal(t, models.RoleAssistant, sel.Messages[len(sel.Messages)-1].Role)
	assert.Equal(t, "", lastContent(t, m))

	m.Update(revealTickMsg{chatID: chatID, seq: m.reveal.seq, index: 1})
	assert.Equal(t, "", lastContent(t, m))
	assert.False(t, m.reveal.active)
}

func TestSwitchingChatsAbandonsReveal(t *testing.T) {
	api := newFakeAPI()
	a := api.seed("a", time.Now())
	b := api.seed("b", time.Now().Add(-time.Hour))
	m := newReadyModel(t, api)
	require.Equal(t, a.ID, m.State().Selected().ID)

	reply := models.Message{Role: models.RoleAssistant, Content: "a b c", Timestamp: time.Now()}
	m.Update(sendResultMsg{chatID: a.ID.String(), prompt: "hi", message: &reply})
	staleSeq := m.reveal.seq

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, b.ID, m.State().Selected().ID)

	before := len(m.State().Selected().Messages)
	m.Update(revealTickMsg{chatID: a.ID.String(), seq: staleSeq, index: 2})

	sel := m.State().Selected()
	assert.Len(t, sel.Messages, before)
	for _, msg := range sel.Messages {
		assert.NotEqual(t, "a b", msg.Content)
	}
}

func TestSecondSubmitWhileLoadingIsRejected(t *testing.T) {
	api := newFakeAPI()
	api.seed("a", time.Now())
	m := newReadyModel(t, api)

	m.input.SetValue("first")
	_, cmd := m.submitPrompt()
	require.NotNil(t, cmd)
	require.True(t, m.isLoading)
	messagesBefore := len(m.State().Selected().Messages)

	m.input.SetValue("second")
	_, cmd = m.submitPrompt()
	assert.Nil(t, cmd)

	select {
	case notice := <-m.notices:
		assert.Equal(t, "Wait for the previous prompt response", notice)
	default:
		t.Fatal("expected a rejection notice")
	}
	assert.Len(t, m.State().Selected().Messages, messagesBefore)
	assert.Equal(t, "second", m.input.Value())
}

func TestSendFailureRestoresDraftWithoutRollback(t *testing.T) {
	api := newFakeAPI()
	chat := api.seed("a", time.Now())
	m := newReadyModel(t, api)

	m.input.SetValue("Hello")
	_, cmd := m.submitPrompt()
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.input.Value())

	m.Update(sendResultMsg{chatID: chat.ID.String(), prompt: "Hello", err: errors.New("provider down")})

	assert.False(t, m.isLoading)
	assert.Equal(t, "Hello", m.input.Value())

	// The optimistic user message stays; only the assistant append was skipped.
	sel := m.State().Selected()
	last := sel.Messages[len(sel.Messages)-1]
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Equal(t, "Hello", last.Content)
}

func TestSendFlowEndToEnd(t *testing.T) {
	api := newFakeAPI()
	m := NewModel(api)

	// Zero chats: bootstrap auto-creates one and selects it.
	require.NoError(t, m.State().Bootstrap(context.Background()))
	m.bootstrapped = true
	sel := m.State().Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "New Chat", sel.Name)
	require.Len(t, sel.Messages, 1)
	assert.Equal(t, models.RoleSystem, sel.Messages[0].Role)

	// Submit "Hello": the user message shows up immediately.
	m.input.SetValue("Hello")
	_, cmd := m.submitPrompt()
	require.NotNil(t, cmd)
	assert.Equal(t, "Hello", lastContent(t, m))

	// Run the network step and feed the result back.
	result := sendPrompt(m.api, sel.ID.String(), "Hello")()
	m.Update(result)
	assert.False(t, m.isLoading)

	// Reveal "Hi there" progressively.
	states := []string{lastContent(t, m)}
	for i := 1; i <= 2; i++ {
		m.Update(revealTickMsg{chatID: sel.ID.String(), seq: m.reveal.seq, index: i})
		states = append(states, lastContent(t, m))
	}
	assert.Equal(t, []string{"", "Hi", "Hi there"}, states)

	// The list copy carries the authoritative assistant message.
	listCopy := m.State().Chats()[0]
	last := listCopy.Messages[len(listCopy.Messages)-1]
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.Equal(t, "Hi there", last.Content)
}
