// deepvision/tui/update.go
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case bootstrapDoneMsg:
		m.bootstrapped = true
		return m, nil

	case refreshDoneMsg:
		return m, nil

	case noticeMsg:
		m.toast = string(msg)
		m.toastSeq++
		return m, tea.Batch(waitForNotice(m.notices), clearToast(m.toastSeq))

	case toastClearMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case sendResultMsg:
		return m.handleSendResult(msg)

	case revealTickMsg:
		if !m.reveal.accept(msg) {
			return m, nil
		}
		m.reveal.index = msg.index
		m.state.SetRevealContent(msg.chatID, m.reveal.contentAt(msg.index))
		if m.reveal.done() {
			m.reveal.active = false
		}
		return m, nil

	default:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		if m.mode == modeRename {
			return m.submitRename()
		}
		return m.submitPrompt()

	case "esc":
		if m.mode == modeRename {
			m.mode = modeCompose
			m.input.Reset()
			m.input.Placeholder = "Ask DeepVision anything..."
		}
		return m, nil

	case "ctrl+n":
		return m, newChat(m.state)

	case "ctrl+r":
		if sel := m.state.Selected(); sel != nil && m.mode == modeCompose {
			m.mode = modeRename
			m.input.SetValue(sel.Name)
			m.input.Placeholder = "New chat name"
		}
		return m, nil

	case "ctrl+d":
		if sel := m.state.Selected(); sel != nil {
			m.cancelReveal()
			return m, deleteChat(m.state, sel.ID.String())
		}
		return m, nil

	case "tab", "shift+tab":
		m.cycleSelection(msg.String() == "tab")
		return m, nil

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// cycleSelection moves the selection through the chat list. Switching chats
// is local only, and it abandons any reveal still running for the old chat.
func (m *Model) cycleSelection(forward bool) {
	chats := m.state.Chats()
	if len(chats) == 0 {
		return
	}
	sel := m.state.Selected()
	current := 0
	if sel != nil {
		for i := range chats {
			if chats[i].ID == sel.ID {
				current = i
				break
			}
		}
	}
	var next int
	if forward {
		next = (current + 1) % len(chats)
	} else {
		next = (current - 1 + len(chats)) % len(chats)
	}
	m.cancelReveal()
	m.state.Select(chats[next].ID.String())
}

// submitPrompt runs the optimistic-append step of a send: capture the text,
// clear the field, append the local user message, then go to the network.
func (m *Model) submitPrompt() (tea.Model, tea.Cmd) {
	prompt := m.input.Value()
	if strings.TrimSpace(prompt) == "" {
		return m, nil
	}
	if m.isLoading {
		m.pushNotice("Wait for the previous prompt response")
		return m, nil
	}
	sel := m.state.Selected()
	if sel == nil {
		m.pushNotice("Login to send message")
		return m, nil
	}

	// A reveal still running for the previous reply is display-only; jump it
	// to its final content before the next exchange starts.
	if m.reveal.active {
		m.state.SetRevealContent(m.reveal.chatID, m.reveal.full())
		m.cancelReveal()
	}

	chatID := sel.ID.String()
	m.input.Reset()
	m.state.AppendUserMessage(chatID, prompt)
	m.isLoading = true
	return m, tea.Batch(m.spin.Tick, sendPrompt(m.api, chatID, prompt))
}

func (m *Model) submitRename() (tea.Model, tea.Cmd) {
	name := m.input.Value()
	m.mode = modeCompose
	m.input.Reset()
	m.input.Placeholder = "Ask DeepVision anything..."
	sel := m.state.Selected()
	if sel == nil {
		return m, nil
	}
	return m, renameChat(m.state, sel.ID.String(), name)
}

func (m *Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false
	if msg.err != nil {
		// Restore the draft so the user doesn't lose it. The optimistic
		// user message stays: the server persisted it before the
		// completion call failed.
		m.input.SetValue(msg.prompt)
		m.state.NotifyError(msg.err)
		return m, nil
	}
	m.state.MergeAssistantMessage(msg.chatID, *msg.message)
	return m, m.startReveal(msg.chatID, msg.message.Content)
}

// startReveal appends the empty assistant placeholder and arms one tick per
// token. Idle resumes right away; the reveal runs in the background.
func (m *Model) startReveal(chatID, content string) tea.Cmd {
	m.revealSeq++
	m.reveal = reveal{
		chatID: chatID,
		seq:    m.revealSeq,
		tokens: splitTokens(content),
		active: true,
	}
	m.state.AppendAssistantPlaceholder(chatID)
	return scheduleReveal(chatID, m.revealSeq, len(m.reveal.tokens))
}

// cancelReveal invalidates all pending reveal ticks.
func (m *Model) cancelReveal() {
	m.revealSeq++
	m.reveal.active = false
}

func (m *Model) pushNotice(text string) {
	select {
	case m.notices <- text:
	default:
	}
}
