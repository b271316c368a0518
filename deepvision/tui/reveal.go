// deepvision/tui/reveal.go
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// revealInterval is the per-token delay of the typing animation.
const revealInterval = 100 * time.Millisecond

// splitTokens cuts the already-received assistant content into the units the
// reveal discloses. strings.Split of "" yields one empty token, so an empty
// reply renders as an empty bubble instead of breaking the animation.
func splitTokens(content string) []string {
	return strings.Split(content, " ")
}

// revealTickMsg discloses tokens [0, index) of one reveal. It carries the
// chat id and reveal sequence so ticks from an abandoned reveal are dropped
// instead of writing into whatever chat is selected by the time they fire.
type revealTickMsg struct {
	chatID string
	seq    int
	index  int
}

// reveal tracks one in-progress typing reveal. The full content was received
// before the reveal started; this is display pacing only.
type reveal struct {
	chatID string
	seq    int
	tokens []string
	index  int
	active bool
}

func (r *reveal) accept(msg revealTickMsg) bool {
	return r.active && msg.seq == r.seq && msg.chatID == r.chatID && msg.index > r.index
}

func (r *reveal) contentAt(index int) string {
	if index > len(r.tokens) {
		index = len(r.tokens)
	}
	return strings.Join(r.tokens[:index], " ")
}

func (r *reveal) full() string {
	return strings.Join(r.tokens, " ")
}

func (r *reveal) done() bool {
	return r.index >= len(r.tokens)
}

// scheduleReveal arms one independently timed tick per token. Each tick fires
// at index*interval from now, so render latency never accumulates drift the
// way chained timers would.
func scheduleReveal(chatID string, seq, tokenCount int) tea.Cmd {
	cmds := make([]tea.Cmd, tokenCount)
	for i := 0; i < tokenCount; i++ {
		index := i + 1
		cmds[i] = tea.Tick(time.Duration(index)*revealInterval, func(time.Time) tea.Msg {
			return revealTickMsg{chatID: chatID, seq: seq, index: index}
		})
	}
	return tea.Batch(cmds...)
}
