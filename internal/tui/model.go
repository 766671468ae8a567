package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"echotree/internal/control"
	"echotree/internal/identity"
	"echotree/internal/session"
	"echotree/internal/ticker"
)

const maxMessages = 4

// Controller is the part of a session the terminal drives.
type Controller interface {
	Type(token ticker.Token)
	Click(nodeId int, button session.Button)
	SelectWord(nodeId int)
	RequestRoot(word string)
	GoodGuess()
	ParagraphDone()
	Close()
}

type mode int

const (
	modeTicker mode = iota
	modeRoot
)

type Model struct {
	controller Controller
	bridge     *Bridge
	role       identity.Role

	rows     []Row
	cursor   int
	ticker   string
	prompt   string
	messages []string
	readOnly bool
	ended    bool
	reason   control.EndReason

	mode      mode
	rootInput textinput.Model
	width     int
	height    int
	quitting  bool
}

func NewModel(controller Controller, bridge *Bridge, role identity.Role) Model {
	ri := textinput.New()
	ri.Placeholder = "root word..."
	ri.CharLimit = 64

	return Model{
		controller: controller,
		bridge:     bridge,
		role:       role,
		rootInput:  ri,
		width:      80,
		height:     30,
	}
}

// Reason is the end of the session, if it ended before the program quit.
func (m Model) Reason() (control.EndReason, bool) {
	return m.reason, m.ended
}

func (m Model) Init() tea.Cmd {
	return m.bridge.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case treeMsg:
		m.setRows(msg)
		return m, m.bridge.wait()

	case tickerMsg:
		m.ticker = string(msg)
		return m, m.bridge.wait()

	case messageMsg:
		m.addMessage(string(msg))
		return m, m.bridge.wait()

	case promptMsg:
		m.prompt = msg.text
		return m, m.bridge.wait()

	case readOnlyMsg:
		m.readOnly = bool(msg)
		return m, m.bridge.wait()

	case endedMsg:
		m.ended = true
		m.reason = control.EndReason(msg)
		return m, m.bridge.wait()

	case tea.KeyMsg:
		if m.ended {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeRoot:
			return m.updateRoot(msg)
		default:
			return m.updateTicker(msg)
		}
	}
	return m, nil
}

func (m Model) updateTicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.controller.Close()
		m.quitting = true
		return m, tea.Quit

	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case tea.KeyDown:
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case tea.KeyEnter:
		if row, ok := m.selected(); ok {
			m.controller.Click(row.Id, session.PrimaryButton)
		}

	case tea.KeyTab:
		if row, ok := m.selected(); ok {
			m.controller.Click(row.Id, session.SecondaryButton)
		}

	case tea.KeyCtrlW:
		if row, ok := m.selected(); ok && m.role == identity.Disabled {
			m.controller.SelectWord(row.Id)
		}

	case tea.KeyCtrlG:
		m.controller.GoodGuess()

	case tea.KeyCtrlD:
		m.controller.ParagraphDone()

	case tea.KeyCtrlR:
		m.rootInput.SetValue("")
		m.rootInput.Focus()
		m.mode = modeRoot
		return m, textinput.Blink

	case tea.KeyBackspace, tea.KeyCtrlH:
		m.typeRune(0x08)

	case tea.KeySpace:
		m.typeRune(' ')

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.typeRune(r)
		}
	}
	return m, nil
}

func (m Model) updateRoot(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.rootInput.Blur()
		m.mode = modeTicker
		return m, nil

	case tea.KeyEnter:
		m.controller.RequestRoot(m.rootInput.Value())
		m.rootInput.Blur()
		m.mode = modeTicker
		return m, nil
	}

	var cmd tea.Cmd
	m.rootInput, cmd = m.rootInput.Update(msg)
	return m, cmd
}

func (m Model) typeRune(r rune) {
	if m.readOnly {
		return
	}
	if token, ok := session.DecodeKey(r); ok {
		m.controller.Type(token)
	}
}

func (m Model) selected() (Row, bool) {
	if m.cursor < 0 || len(m.rows) <= m.cursor {
		return Row{}, false
	}
	return m.rows[m.cursor], true
}

// setRows keeps the cursor on the same node when it survives the update.
func (m *Model) setRows(rows []Row) {
	current, ok := m.selected()
	m.rows = rows
	m.cursor = 0
	if !ok {
		return
	}
	for i, row := range rows {
		if row.Id == current.Id {
			m.cursor = i
			return
		}
	}
}

func (m *Model) addMessage(text string) {
	m.messages = append(m.messages, text)
	if maxMessages < len(m.messages) {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := titleStyle.Render("EchoTree")
	role := roleStyle.Render(roleLabel(m.role))
	b.WriteString(title + " " + role)
	if m.readOnly {
		b.WriteString(dimStyle.Render("  (read only)"))
	}
	b.WriteString("\n")

	if m.prompt != "" {
		b.WriteString(promptStyle.Width(m.width-2).Render(m.prompt) + "\n")
	}

	style := tickerStyle
	if m.readOnly {
		style = readOnlyTickerStyle
	}
	b.WriteString(style.Width(m.width-4).Render(m.ticker+"_") + "\n")

	b.WriteString(m.renderTree())

	for _, text := range m.messages {
		b.WriteString(messageStyle.Render(text) + "\n")
	}

	if m.ended {
		b.WriteString(endedStyle.Render(endedLabel(m.reason)) + "\n")
		b.WriteString(helpStyle.Render("  press any key to exit"))
		return b.String()
	}

	switch m.mode {
	case modeRoot:
		b.WriteString(dimStyle.Render("New root: ") + m.rootInput.View())
	default:
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

func (m Model) renderTree() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("  waiting for a word tree...") + "\n"
	}
	visible := m.height - 10 - len(m.messages)
	if visible < 3 {
		visible = 3
	}
	offset := 0
	if visible <= m.cursor {
		offset = m.cursor - visible + 1
	}
	end := offset + visible
	if len(m.rows) < end {
		end = len(m.rows)
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		row := m.rows[i]
		line := strings.Repeat("  ", row.Depth) + marker(row) + " " + row.Word
		switch {
		case i == m.cursor:
			line = lipgloss.PlaceHorizontal(m.width, lipgloss.Left, selectedStyle.Render(line))
		case row.Depth == 0:
			line = rootStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderHelp() string {
	if m.role == identity.Disabled {
		return helpStyle.Render("  ↑/↓: move  Enter: new root  Tab: fold  ^W: add word  ^D: paragraph done  ^R: root  Esc: quit")
	}
	return helpStyle.Render("  ↑/↓: move  Enter: new root  Tab: fold  ^G: good guess  ^R: root  Esc: quit")
}

func marker(row Row) string {
	switch {
	case row.Leaf:
		return "·"
	case row.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

func roleLabel(role identity.Role) string {
	if role == identity.Disabled {
		return "typist"
	}
	return "partner"
}

func endedLabel(reason control.EndReason) string {
	if reason.NextUrl != "" {
		return fmt.Sprintf("%s  Next: %s", reason.Message, reason.NextUrl)
	}
	if reason.Message != "" {
		return reason.Message
	}
	return "Session ended."
}
