package cli

import (
	"context"
	"strings"

	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/intelligence"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// turnDoneMsg carries the outcome of one driver turn.
type turnDoneMsg struct {
	res intelligence.TurnResult
	err error
}

// confirmationMsg arrives while the driver holds the confirmation on screen.
type confirmationMsg struct {
	entry intelligence.Entry
}

// chatModel is the drafting conversation screen. Input is disabled while a
// turn is pending.
type chatModel struct {
	ctx     context.Context
	driver  *intelligence.CurriculumDriver
	title   string
	input   textinput.Model
	spinner spinner.Model
	entries []intelligence.Entry
	pending bool
	done    bool
}

func newChatModel(ctx context.Context, dr *intelligence.CurriculumDriver, title string) *chatModel {
	ti := textinput.New()
	ti.Placeholder = "Describe your course, or ask for a structure"
	ti.Prompt = ""
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	return &chatModel{
		ctx:     ctx,
		driver:  dr,
		title:   title,
		input:   ti,
		spinner: sp,
		entries: dr.Transcript(),
	}
}

func (m *chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
		if m.pending || m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case confirmationMsg:
		m.entries = m.driver.Transcript()
		return m, nil

	case turnDoneMsg:
		m.pending = false
		m.entries = m.driver.Transcript()
		if msg.res.Completed {
			m.done = true
			return m, tea.Quit
		}
		m.input.Focus()
		return m, textinput.Blink

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *chatModel) submit() (tea.Model, tea.Cmd) {
	if m.pending || m.done {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if text == "/quit" || text == "/exit" {
		return m, tea.Quit
	}
	m.input.Reset()
	m.input.Blur()
	m.pending = true
	m.entries = append(m.entries, intelligence.Entry{Role: intelligence.RoleUser, Kind: intelligence.KindMessage, Text: text})
	return m, tea.Batch(m.spinner.Tick, m.send(text))
}

func (m *chatModel) send(text string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.driver.Send(m.ctx, text)
		return turnDoneMsg{res: res, err: err}
	}
}

func (m *chatModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.Header("Drafting: "+m.title) + "\n")
	if len(m.entries) == 0 {
		b.WriteString(formatter.Dim("Tell the assistant about your clients and goals. It will propose weeks and tasks.") + "\n")
	}
	for _, e := range m.entries {
		b.WriteString(formatter.FormatEntry(e) + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.done:
	case m.pending:
		b.WriteString(m.spinner.View() + " " + formatter.Dim("Thinking...") + "\n")
	default:
		b.WriteString(formatter.StylePurple.Render("draft") + formatter.Dim("> ") + m.input.View() + "\n")
		b.WriteString(formatter.Dim("enter send · esc leave") + "\n")
	}
	return b.String()
}
