// Package tui es el widget de chat interactivo para la terminal.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"tailortalk/internal/domain"
	"tailortalk/internal/render"
	"tailortalk/internal/service"
)

// snapshotMsg llega cada vez que la conversacion muta.
type snapshotMsg domain.ConversationSnapshot

type closedMsg struct{}

// Model conecta una Conversation con bubbletea. La conversacion es la unica fuente de verdad;
// el modelo solo guarda layout y el foco de teclado sobre los horarios.
type Model struct {
	conv        *service.Conversation
	updates     <-chan domain.ConversationSnapshot
	unsubscribe func()
	logger      *zap.Logger
	now         func() time.Time

	input    textinput.Model
	viewport viewport.Model
	snapshot domain.ConversationSnapshot
	focus    int
	width    int
	height   int
}

func New(conv *service.Conversation, logger *zap.Logger, now func() time.Time) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	updates, unsubscribe := conv.Subscribe()

	in := textinput.New()
	in.Placeholder = render.Placeholder
	in.Prompt = ""
	in.CharLimit = 500
	in.Focus()

	m := Model{
		conv:        conv,
		updates:     updates,
		unsubscribe: unsubscribe,
		logger:      logger,
		now:         now,
		input:       in,
		viewport:    viewport.New(80, 20),
		snapshot:    conv.Snapshot(),
		focus:       -1,
		width:       80,
		height:      30,
	}
	m.resize()
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForSnapshot(m.updates))
}

func waitForSnapshot(updates <-chan domain.ConversationSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case snapshotMsg:
		m.snapshot = domain.ConversationSnapshot(msg)
		m.clampFocus()
		m.refresh()
		return m, waitForSnapshot(m.updates)

	case closedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.unsubscribe()
		return m, tea.Quit
	case "ctrl+r":
		// Microfono decorativo.
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "tab":
		m.moveFocus(1)
		m.refresh()
		return m, nil
	case "shift+tab":
		m.moveFocus(-1)
		m.refresh()
		return m, nil
	case "esc":
		if m.snapshot.PendingConfirmation {
			m.run("decline", func() (bool, error) { return m.conv.Decline() })
			return m, nil
		}
		if m.focus >= 0 {
			m.focus = -1
			m.refresh()
		}
		return m, nil
	case "enter":
		return m.handleEnter()
	}

	if m.snapshot.PendingConfirmation && m.input.Value() == "" {
		switch msg.String() {
		case "y", "Y":
			m.run("accept", func() (bool, error) { return m.conv.Accept() })
			return m, nil
		case "n", "N":
			m.run("decline", func() (bool, error) { return m.conv.Decline() })
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if err := m.conv.SetDraft(m.input.Value()); err != nil {
		m.logger.Warn("set draft failed", zap.Error(err))
	}
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if slots := m.availableSlots(); m.focus >= 0 && m.focus < len(slots) {
		label := slots[m.focus].Time
		m.focus = -1
		m.run("click slot", func() (bool, error) { return m.conv.ClickSlot(0, label) })
		return m, nil
	}
	if m.snapshot.PendingConfirmation && m.input.Value() == "" {
		m.run("accept", func() (bool, error) { return m.conv.Accept() })
		return m, nil
	}
	if err := m.conv.SetDraft(m.input.Value()); err != nil {
		m.logger.Warn("set draft failed", zap.Error(err))
		return m, nil
	}
	accepted, err := m.conv.Submit()
	if err != nil {
		m.logger.Warn("submit failed", zap.Error(err))
		return m, nil
	}
	if accepted {
		m.input.SetValue("")
	}
	return m, nil
}

func (m Model) run(action string, fn func() (bool, error)) {
	accepted, err := fn()
	if err != nil {
		m.logger.Warn(action+" failed", zap.Error(err))
		return
	}
	m.logger.Debug(action, zap.Bool("accepted", accepted))
}

// availableSlots son los horarios clickeables del selector mas reciente.
func (m Model) availableSlots() []domain.TimeSlot {
	var out []domain.TimeSlot
	for _, s := range m.snapshot.LatestSlots() {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

func (m *Model) moveFocus(delta int) {
	n := len(m.availableSlots())
	if n == 0 {
		m.focus = -1
		return
	}
	if m.focus < 0 {
		if delta > 0 {
			m.focus = 0
		} else {
			m.focus = n - 1
		}
		return
	}
	m.focus = (m.focus + delta + n) % n
}

func (m *Model) clampFocus() {
	if m.focus >= len(m.availableSlots()) {
		m.focus = -1
	}
}

func (m Model) focusedLabel() string {
	slots := m.availableSlots()
	if m.focus < 0 || m.focus >= len(slots) {
		return ""
	}
	return slots[m.focus].Time
}

func (m *Model) resize() {
	header := lipgloss.Height(render.Header(m.now(), m.width))
	footer := lipgloss.Height(render.InputBar(m.input.View(), m.width))
	h := m.height - header - footer - 2
	if m.snapshot.PendingConfirmation {
		h -= lipgloss.Height(render.ConfirmationCard(m.width)) + 1
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - 12
}

// refresh vuelve a dibujar el historial y baja al mensaje mas nuevo.
func (m *Model) refresh() {
	m.resize()
	m.viewport.SetContent(render.Transcript(m.snapshot, render.Options{
		Width:       m.width,
		FocusedSlot: m.focusedLabel(),
	}))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	parts := []string{
		render.Header(m.now(), m.width),
		m.viewport.View(),
	}
	if m.snapshot.PendingConfirmation {
		parts = append(parts, render.ConfirmationCard(m.width))
	}
	parts = append(parts, render.InputBar(m.input.View(), m.width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Snapshot expone el ultimo estado recibido; lo usan los tests.
func (m Model) Snapshot() domain.ConversationSnapshot {
	return m.snapshot
}
