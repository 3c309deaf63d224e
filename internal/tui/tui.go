// Package tui provides an interactive terminal view of the active list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"voxcart/internal/category"
	"voxcart/internal/list"
	"voxcart/internal/suggest"
)

// Engine is the slice of application behavior the view drives.
type Engine interface {
	Snapshot() list.Snapshot
	Filter() list.Filter
	SetFilter(filter list.Filter)
	Counts() (active, completed, total int)
	AddItem(ctx context.Context, text string) list.Feedback
	ToggleItem(ctx context.Context, id string) list.Feedback
	EditItem(ctx context.Context, id, text string) list.Feedback
	DeleteItem(ctx context.Context, id string) list.Feedback
	MoveItem(ctx context.Context, id string, direction list.Direction) list.Feedback
	ClearCompleted(ctx context.Context) list.Feedback
	TTS() bool
	SetTTS(enabled bool)
	Say(ctx context.Context, text string) list.Feedback
	Suggestions(query string) []suggest.Match
	Flush()
}

// inputMode selects what the shared text input is editing.
type inputMode int

const (
	modeBrowse inputMode = iota
	modeAdd
	modeEdit
	modeCommand
)

// row is one rendered line: either a category header or an item.
type row struct {
	header   string
	item     list.Item
	isHeader bool
}

type model struct {
	ctx    context.Context
	engine Engine

	rows   []row
	cursor int

	mode   inputMode
	input  textinput.Model
	editID string
	hint   string

	status   string
	severity list.Severity
	width    int
	height   int
}

// Run starts the interactive list and blocks until the user quits.
func Run(ctx context.Context, engine Engine) error {
	m := newModel(ctx, engine)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	engine.Flush()
	return err
}

func newModel(ctx context.Context, engine Engine) model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 200

	m := model{
		ctx:    ctx,
		engine: engine,
		input:  input,
		width:  80,
		height: 24,
	}
	m.reload()
	return m
}

// reload rebuilds the visible rows from engine state, clamping the cursor.
func (m *model) reload() {
	snap := m.engine.Snapshot()
	items := list.Filtered(snap.Items(), m.engine.Filter())

	rows := make([]row, 0, len(items)+4)
	for _, group := range list.Grouped(items) {
		rows = append(rows, row{header: category.Label(group.Category), isHeader: true})
		for _, item := range group.Items {
			rows = append(rows, row{item: item})
		}
	}
	m.rows = rows

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.snapToItem(1)
}

// snapToItem moves the cursor off header rows in the given direction.
func (m *model) snapToItem(direction int) {
	for m.cursor >= 0 && m.cursor < len(m.rows) && m.rows[m.cursor].isHeader {
		m.cursor += direction
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) selected() (list.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].isHeader {
		return list.Item{}, false
	}
	return m.rows[m.cursor].item, true
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "down", "j":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-1)
	case " ":
		if item, ok := m.selected(); ok {
			m.applyFeedback(m.engine.ToggleItem(m.ctx, item.ID))
		}
	case "d":
		if item, ok := m.selected(); ok {
			m.applyFeedback(m.engine.DeleteItem(m.ctx, item.ID))
		}
	case "J":
		if item, ok := m.selected(); ok {
			m.applyFeedback(m.engine.MoveItem(m.ctx, item.ID, list.DirectionDown))
		}
	case "K":
		if item, ok := m.selected(); ok {
			m.applyFeedback(m.engine.MoveItem(m.ctx, item.ID, list.DirectionUp))
		}
	case "c":
		m.applyFeedback(m.engine.ClearCompleted(m.ctx))
	case "f":
		m.cycleFilter()
	case "t":
		m.toggleTTS()
	case "a":
		m.enterInput(modeAdd, "", "Add an item, e.g. 2 gallons of milk")
	case "e":
		if item, ok := m.selected(); ok {
			m.editID = item.ID
			m.enterInput(modeEdit, item.Label(), "New item text")
		}
	case ":":
		m.enterInput(modeCommand, "", "Command, e.g. delete milk")
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.leaveInput()
		return m, nil
	case "tab":
		if m.mode == modeAdd && m.hint != "" {
			m.input.SetValue(m.hint)
			m.input.CursorEnd()
			m.hint = ""
		}
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.submitInput(text)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshHint()
	return m, cmd
}

func (m *model) submitInput(text string) {
	mode := m.mode
	editID := m.editID
	m.leaveInput()
	if text == "" {
		return
	}

	switch mode {
	case modeAdd:
		m.applyFeedback(m.engine.AddItem(m.ctx, text))
	case modeEdit:
		m.applyFeedback(m.engine.EditItem(m.ctx, editID, text))
	case modeCommand:
		m.applyFeedback(m.engine.Say(m.ctx, text))
	}
}

func (m *model) enterInput(mode inputMode, value, placeholder string) {
	m.mode = mode
	m.hint = ""
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *model) leaveInput() {
	m.mode = modeBrowse
	m.editID = ""
	m.hint = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m *model) refreshHint() {
	m.hint = ""
	if m.mode != modeAdd {
		return
	}
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return
	}
	if matches := m.engine.Suggestions(query); len(matches) > 0 {
		m.hint = matches[0].Candidate.Label()
	}
}

func (m *model) applyFeedback(fb list.Feedback) {
	m.status = fb.Message
	m.severity = fb.Severity
	m.reload()
}

func (m *model) moveCursor(direction int) {
	next := m.cursor + direction
	for next >= 0 && next < len(m.rows) && m.rows[next].isHeader {
		next += direction
	}
	if next >= 0 && next < len(m.rows) {
		m.cursor = next
	}
}

func (m *model) cycleFilter() {
	var next list.Filter
	switch m.engine.Filter() {
	case list.FilterAll:
		next = list.FilterActive
	case list.FilterActive:
		next = list.FilterCompleted
	default:
		next = list.FilterAll
	}
	m.engine.SetFilter(next)
	m.status = fmt.Sprintf("Filter: %s", next)
	m.severity = list.SeverityInfo
	m.reload()
}

func (m *model) toggleTTS() {
	enabled := !m.engine.TTS()
	m.engine.SetTTS(enabled)
	m.status = "Voice feedback off"
	if enabled {
		m.status = "Voice feedback on"
	}
	m.severity = list.SeverityInfo
}

func (m model) View() string {
	var b strings.Builder

	snap := m.engine.Snapshot()
	active, completed, total := m.engine.Counts()
	header := fmt.Sprintf("%s   %s %d open  %s %d done  %s %d total  [%s]",
		titleStyle.Render(snap.Active().Name),
		pendingStyle.Render("•"), active,
		successStyle.Render("✔"), completed,
		accentStyle.Render("Σ"), total,
		m.engine.Filter(),
	)
	b.WriteString(header)
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("  (empty)"))
		b.WriteString("\n")
	}

	for i, r := range m.rows {
		if r.isHeader {
			b.WriteString(headerStyle.Render(r.header))
			b.WriteString("\n")
			continue
		}

		box := boxUnchecked
		text := r.item.Label()
		if r.item.Completed {
			box = successStyle.Render(boxChecked)
			text = doneStyle.Render(text)
		} else {
			box = mutedStyle.Render(box)
		}

		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, box, text)
	}

	if m.mode != modeBrowse {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		if m.hint != "" {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  tab: %s", m.hint)))
		}
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle(m.severity).Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space toggle  a add  e edit  d delete  J/K move  f filter  c clear done  t voice  : command  q quit"))
	b.WriteString("\n")
	return b.String()
}
