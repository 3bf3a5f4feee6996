// Package tui is the view layer: it renders snapshots of the two state
// stores and dispatches intents into them. It holds no chat state of its
// own beyond input buffers and focus.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/model"
	"ragchat/internal/state"
)

const sidebarWidth = 32

type focusArea int

const (
	focusSidebar focusArea = iota
	focusInput
)

// refreshMsg asks the model to re-snapshot the stores.
type refreshMsg struct{}

// streamTickMsg drives periodic re-rendering while a reply is streaming in.
type streamTickMsg struct{}

// streamDoneMsg signals that a streaming send finished, ok or not.
type streamDoneMsg struct{}

// Model is the Bubble Tea model for the whole client.
type Model struct {
	chat     *state.ChatStore
	sessions *state.SessionStore

	chatSnap state.ChatState
	sessSnap state.SessionState

	focus     focusArea
	selected  int
	input     string
	renaming  bool
	renameBuf string
	creating  bool
	createBuf string
	streaming bool

	width  int
	height int
}

// New builds the TUI over the two stores.
func New(chat *state.ChatStore, sessions *state.SessionStore) Model {
	return Model{
		chat:     chat,
		sessions: sessions,
		focus:    focusInput,
	}
}

// Run starts the program in the alternate screen.
func Run(chat *state.ChatStore, sessions *state.SessionStore) error {
	_, err := tea.NewProgram(New(chat, sessions), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.fetchSessionsCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case refreshMsg:
		// snapshots refreshed below

	case streamDoneMsg:
		m.streaming = false

	case streamTickMsg:
		if m.streaming {
			cmd = streamTick()
		}

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	}

	m.chatSnap = m.chat.Snapshot()
	m.sessSnap = m.sessions.Snapshot()
	m.clampSelection()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.renaming || m.creating {
		return m.handleTextEntry(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		if m.focus == focusSidebar {
			m.focus = focusInput
		} else {
			m.focus = focusSidebar
		}
		return m, nil
	case tea.KeyEsc:
		m.chat.ClearError()
		m.sessions.ClearError()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.sessSnap.Sessions)-1 {
			m.selected++
		}
	case "enter":
		if sess, ok := m.selectedSession(); ok {
			return m, m.selectSessionCmd(sess.ID)
		}
	case "n":
		m.creating = true
		m.createBuf = ""
	case "r":
		if sess, ok := m.selectedSession(); ok {
			m.renaming = true
			m.renameBuf = sess.Title
		}
	case "d":
		if sess, ok := m.selectedSession(); ok {
			return m, m.deleteSessionCmd(sess.ID)
		}
	case "f":
		if sess, ok := m.selectedSession(); ok {
			return m, m.toggleFavoriteCmd(sess.ID)
		}
	case "g":
		return m, m.fetchSessionsCmd()
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input)
		if text == "" || m.streaming {
			return m, nil
		}
		m.input = ""
		m.streaming = true
		return m, tea.Batch(m.sendStreamingCmd(text), streamTick())
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	case tea.KeySpace:
		m.input += " "
	}
	return m, nil
}

// handleTextEntry routes keys while a rename or create prompt is open.
func (m Model) handleTextEntry(msg tea.KeyMsg) (Model, tea.Cmd) {
	buf := &m.renameBuf
	if m.creating {
		buf = &m.createBuf
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.renaming, m.creating = false, false
	case tea.KeyEnter:
		text := strings.TrimSpace(*buf)
		if m.renaming {
			m.renaming = false
			if sess, ok := m.selectedSession(); ok && text != "" {
				return m, m.renameSessionCmd(sess.ID, text)
			}
		} else {
			m.creating = false
			if text != "" {
				return m, m.createSessionCmd(text)
			}
		}
	case tea.KeyBackspace:
		if len(*buf) > 0 {
			runes := []rune(*buf)
			*buf = string(runes[:len(runes)-1])
		}
	case tea.KeyRunes:
		*buf += string(msg.Runes)
	case tea.KeySpace:
		*buf += " "
	}
	return m, nil
}

func (m Model) selectedSession() (model.ChatSession, bool) {
	if m.selected < 0 || m.selected >= len(m.sessSnap.Sessions) {
		return model.ChatSession{}, false
	}
	return m.sessSnap.Sessions[m.selected], true
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.sessSnap.Sessions) {
		m.selected = len(m.sessSnap.Sessions) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// --- intents -------------------------------------------------------------

func (m Model) fetchSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.sessions.Fetch(context.Background())
		return refreshMsg{}
	}
}

// selectSessionCmd is the one place the two stores are coordinated: clear
// the old session's messages first so they are never shown under the new
// selection, then load the new history.
func (m Model) selectSessionCmd(id string) tea.Cmd {
	m.chat.ClearMessages()
	m.sessions.SetCurrentSession(id)
	return func() tea.Msg {
		_ = m.chat.LoadSessionMessages(context.Background(), id)
		return refreshMsg{}
	}
}

func (m Model) createSessionCmd(title string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.sessions.Create(context.Background(), title); err == nil {
			m.chat.ClearMessages()
		}
		return refreshMsg{}
	}
}

func (m Model) deleteSessionCmd(id string) tea.Cmd {
	wasCurrent := m.sessSnap.CurrentSessionID == id
	return func() tea.Msg {
		if err := m.sessions.Delete(context.Background(), id); err == nil && wasCurrent {
			m.chat.ClearMessages()
		}
		return refreshMsg{}
	}
}

func (m Model) renameSessionCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		_ = m.sessions.Rename(context.Background(), id, title)
		return refreshMsg{}
	}
}

func (m Model) toggleFavoriteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		_ = m.sessions.ToggleFavorite(context.Background(), id)
		return refreshMsg{}
	}
}

func (m Model) sendStreamingCmd(text string) tea.Cmd {
	sessionID := m.sessSnap.CurrentSessionID
	return func() tea.Msg {
		_ = m.chat.SendStreamingMessage(context.Background(), sessionID, text)
		return streamDoneMsg{}
	}
}

func streamTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return streamTickMsg{}
	})
}

// --- rendering -----------------------------------------------------------

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	inputHeight := 3
	paneHeight := m.height - inputHeight - 1
	if paneHeight < 3 {
		paneHeight = 3
	}
	chatWidth := m.width - sidebarWidth - 4
	if chatWidth < 20 {
		chatWidth = 20
	}

	sidebar := m.renderSidebar(paneHeight)
	chatPane := m.renderChat(chatWidth, paneHeight)
	input := m.renderInput(m.width - 4)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chatPane)
	return lipgloss.JoinVertical(lipgloss.Left, body, input, m.renderStatus())
}

func (m Model) renderSidebar(height int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("Sessions"))
	b.WriteString("\n")

	switch {
	case m.creating:
		b.WriteString("new: " + m.createBuf + "▌\n")
	case m.renaming:
		b.WriteString("rename: " + m.renameBuf + "▌\n")
	case m.sessSnap.IsLoading:
		b.WriteString(dimStyle.Render("loading...") + "\n")
	}

	for i, sess := range m.sessSnap.Sessions {
		title := sess.Title
		if title == "" {
			title = "(untitled)"
		}
		if len(title) > sidebarWidth-8 {
			title = title[:sidebarWidth-8] + "…"
		}
		line := title
		if sess.Favorite {
			line = "★ " + line
		}
		if sess.ID == m.sessSnap.CurrentSessionID {
			line = currentMarkStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		if i == m.selected && m.focus == focusSidebar {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
		b.WriteString(dimStyle.Render("    "+relativeTime(sess.UpdatedAt)) + "\n")
	}

	style := sidebarStyle
	if m.focus == focusSidebar {
		style = sidebarFocusStyle
	}
	return style.Width(sidebarWidth).Height(height).Render(b.String())
}

func (m Model) renderChat(width, height int) string {
	var b strings.Builder
	for _, msg := range m.chatSnap.Messages {
		label := userStyle.Render("you")
		if msg.Role != model.RoleUser {
			label = assistantStyle.Render("assistant")
			if msg.IsStreaming {
				label += dimStyle.Render(" (streaming)")
			}
		}
		b.WriteString(label + "\n")
		b.WriteString(wrap(msg.Content, width-2) + "\n\n")
	}
	if m.chatSnap.IsLoading && !m.streaming {
		b.WriteString(dimStyle.Render("loading messages...") + "\n")
	}

	content := b.String()
	lines := strings.Split(content, "\n")
	// Keep the tail visible: the newest messages matter most.
	if limit := height - 2; len(lines) > limit && limit > 0 {
		lines = lines[len(lines)-limit:]
		content = strings.Join(lines, "\n")
	}
	return chatStyle.Width(width).Height(height).Render(content)
}

func (m Model) renderInput(width int) string {
	style := inputStyle
	if m.focus == focusInput {
		style = inputFocusStyle
	}
	prompt := "> " + m.input
	if m.focus == focusInput {
		prompt += "▌"
	}
	return style.Width(width).Render(prompt)
}

func (m Model) renderStatus() string {
	if err := m.chatSnap.Error; err != "" {
		return errorStyle.Render("error: " + err)
	}
	if err := m.sessSnap.Error; err != "" {
		return errorStyle.Render("error: " + err)
	}
	help := "tab focus · enter send/select · n new · r rename · d delete · f favorite · g reload · ctrl+c quit"
	return dimStyle.Render(help)
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var b strings.Builder
	line := 0
	for _, word := range strings.Fields(s) {
		if line > 0 && line+len(word)+1 > width {
			b.WriteString("\n")
			line = 0
		} else if line > 0 {
			b.WriteString(" ")
			line++
		}
		b.WriteString(word)
		line += len(word)
	}
	return b.String()
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
