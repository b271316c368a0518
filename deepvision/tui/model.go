// deepvision/tui/model.go
package tui

import (
	"context"
	"time"

	"deepvision/deepvision/client"
	"deepvision/deepvision/sources/psql/models"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type mode int

const (
	modeCompose mode = iota
	modeRename
)

// Model is the terminal chat view: the sidebar chat list, the message pane
// for the selected chat, and the prompt composer with its typing reveal.
type Model struct {
	api   client.API
	state *client.State

	input textinput.Model
	spin  spinner.Model
	mode  mode

	// isLoading covers the network round trip of one send only, not the
	// reveal phase; a second submit while true is rejected, not queued.
	isLoading bool

	reveal    reveal
	revealSeq int

	toast    string
	toastSeq int
	notices  chan string

	bootstrapped bool
	width        int
	height       int
}

func NewModel(api client.API) *Model {
	notices := make(chan string, 16)
	push := func(msg string) {
		select {
		case notices <- msg:
		default:
		}
	}
	state := client.NewState(api, client.NotifierFunc(push))

	input := textinput.New()
	input.Placeholder = "Ask DeepVision anything..."
	input.CharLimit = 2000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return &Model{
		api:     api,
		state:   state,
		input:   input,
		spin:    spin,
		notices: notices,
	}
}

// State exposes the underlying chat state manager.
func (m *Model) State() *client.State { return m.state }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		bootstrap(m.state),
		waitForNotice(m.notices),
	)
}

type (
	bootstrapDoneMsg struct{ err error }
	refreshDoneMsg   struct{}
	noticeMsg        string
	toastClearMsg    struct{ seq int }

	sendResultMsg struct {
		chatID  string
		prompt  string
		message *models.Message
		err     error
	}
)

func bootstrap(state *client.State) tea.Cmd {
	return func() tea.Msg {
		return bootstrapDoneMsg{err: state.Bootstrap(context.Background())}
	}
}

func waitForNotice(ch chan string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-ch)
	}
}

func sendPrompt(api client.API, chatID, prompt string) tea.Cmd {
	return func() tea.Msg {
		message, err := api.SendMessage(context.Background(), chatID, prompt)
		return sendResultMsg{chatID: chatID, prompt: prompt, message: message, err: err}
	}
}

func newChat(state *client.State) tea.Cmd {
	return func() tea.Msg {
		_ = state.CreateChat(context.Background())
		return refreshDoneMsg{}
	}
}

func renameChat(state *client.State, chatID, name string) tea.Cmd {
	return func() tea.Msg {
		_ = state.RenameChat(context.Background(), chatID, name)
		return refreshDoneMsg{}
	}
}

func deleteChat(state *client.State, chatID string) tea.Cmd {
	return func() tea.Msg {
		_ = state.DeleteChat(context.Background(), chatID)
		return refreshDoneMsg{}
	}
}

func clearToast(seq int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return toastClearMsg{seq: seq}
	})
}
