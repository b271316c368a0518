// deepvision/tui/view.go
package tui

import (
	"fmt"
	"strings"

	"deepvision/deepvision/sources/psql/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("240")).
			Width(24).
			PaddingRight(1)

	selectedChatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	chatNameStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	userMsgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	toastStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func (m *Model) View() string {
	if !m.bootstrapped {
		return statusStyle.Render("Loading chats...")
	}

	sidebar := m.renderSidebar()
	messages := m.renderMessages()
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, messages)

	var b strings.Builder
	b.WriteString(main)
	b.WriteString("\n\n")
	if m.mode == modeRename {
		b.WriteString("Rename: ")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.isLoading {
		b.WriteString(statusStyle.Render(m.spin.View() + " Thinking..."))
		b.WriteString("\n")
	}
	if m.toast != "" {
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter send · tab switch chat · ctrl+n new · ctrl+r rename · ctrl+d delete · ctrl+c quit"))
	return b.String()
}

func (m *Model) renderSidebar() string {
	chats := m.state.Chats()
	sel := m.state.Selected()

	var lines []string
	lines = append(lines, chatNameStyle.Render("Chats"))
	for i := range chats {
		name := chats[i].Name
		if sel != nil && chats[i].ID == sel.ID {
			lines = append(lines, selectedChatStyle.Render("> "+name))
		} else {
			lines = append(lines, chatNameStyle.Render("  "+name))
		}
	}
	return sidebarStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderMessages() string {
	sel := m.state.Selected()
	if sel == nil {
		return statusStyle.Render("No chat selected")
	}

	var lines []string
	for _, msg := range sel.Messages {
		switch msg.Role {
		case models.RoleUser:
			lines = append(lines, userMsgStyle.Render("You: ")+msg.Content)
		case models.RoleAssistant:
			lines = append(lines, assistantMsgStyle.Render("DeepVision: "+msg.Content))
		}
	}
	if len(lines) == 0 {
		return statusStyle.Render(fmt.Sprintf("%s — ask anything to get started", sel.Name))
	}
	return strings.Join(lines, "\n")
}
