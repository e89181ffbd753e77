package display

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"twitch-chat-viewer/model"
)

const defaultMaxLines = 1000

var (
	bandStyles = [2]lipgloss.Style{
		lipgloss.NewStyle().Background(lipgloss.Color("#f0f0f0")).Foreground(lipgloss.Color("#1f2937")),
		lipgloss.NewStyle().Background(lipgloss.Color("#d0d0d0")).Foreground(lipgloss.Color("#1f2937")),
	}

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2c2f33")).
			Foreground(lipgloss.Color("#e5e7eb")).
			Bold(true).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ca3af")).
			Padding(0, 1)
)

// TUI показывает чат в терминале. Работает в собственном цикле bubbletea
// и забирает события из канала, не блокируя горутину чтения.
type TUI struct {
	events   <-chan model.ChatEvent
	scroll   *AutoScroll
	channel  string
	maxLines int
}

// NewTUI создаёт дисплей для канала channel.
func NewTUI(events <-chan model.ChatEvent, scroll *AutoScroll, channel string) *TUI {
	if scroll == nil {
		scroll = &AutoScroll{}
	}
	return &TUI{events: events, scroll: scroll, channel: channel, maxLines: defaultMaxLines}
}

// Run блокируется, пока пользователь не выйдет или не будет отменён контекст.
func (t *TUI) Run(ctx context.Context) error {
	p := tea.NewProgram(
		newChatModel(t.events, t.scroll, t.channel, t.maxLines),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type eventMsg model.ChatEvent

type streamClosedMsg struct{}

func waitForEvent(events <-chan model.ChatEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

type chatModel struct {
	events   <-chan model.ChatEvent
	scroll   *AutoScroll
	channel  string
	maxLines int

	history  []model.ChatEvent
	viewport viewport.Model
	width    int
}

func newChatModel(events <-chan model.ChatEvent, scroll *AutoScroll, channel string, maxLines int) chatModel {
	return chatModel{
		events:   events,
		scroll:   scroll,
		channel:  channel,
		maxLines: maxLines,
		viewport: viewport.New(80, 20),
		width:    80,
	}
}

func (m chatModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.render()
		return m, nil

	case eventMsg:
		m.history = append(m.history, model.ChatEvent(msg))
		if len(m.history) > m.maxLines {
			m.history = m.history[len(m.history)-m.maxLines:]
		}
		m.render()
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		// поток завершился; показанное остаётся на экране
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.scroll.Enabled() || msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
		return m, nil
	}

	return m, nil
}

func (m chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.scroll.Toggle() {
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	if m.scroll.Enabled() {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.viewport.ScrollUp(1)
	case "down", "j":
		m.viewport.ScrollDown(1)
	case "pgup":
		m.viewport.ScrollUp(max(m.viewport.Height/2, 1))
	case "pgdown":
		m.viewport.ScrollDown(max(m.viewport.Height/2, 1))
	case "home":
		m.viewport.GotoTop()
	case "end":
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m *chatModel) render() {
	lines := make([]string, 0, len(m.history))
	for _, ev := range m.history {
		lines = append(lines, renderEvent(ev, m.width))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.scroll.Enabled() {
		m.viewport.GotoBottom()
	}
}

func renderEvent(ev model.ChatEvent, width int) string {
	style := bandStyles[ev.Band()]
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(FormatLine(ev))
}

func (m chatModel) View() string {
	status := "auto-scroll on"
	if !m.scroll.Enabled() {
		status = "auto-scroll paused"
	}

	header := headerStyle.Width(m.width).Render("#" + m.channel + " · " + status)
	footer := footerStyle.Render("tab: toggle auto-scroll · ↑/↓ pgup/pgdn wheel: scroll while paused · q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}
