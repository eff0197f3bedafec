package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"minidb/pkg/database"
)

// Model is the interactive shell's bubbletea state: a SQL editor on
// the bottom, a scrollable result view on top.
type Model struct {
	database    *database.Database
	queryEditor textarea.Model
	resultView  viewport.Model

	width   int
	height  int
	history []string
	keys    keyMap
}

func NewModel(db *database.Database) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter a SQL statement..."
	ta.CharLimit = 5000
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.Focus()
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(bgLight)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(textMuted)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textPrimary)

	vp := viewport.New(80, 16)
	vp.Style = resultStyle
	vp.SetContent("Ready. Ctrl+J executes, Ctrl+T lists tables, Ctrl+C quits.")

	return Model{
		database:    db,
		queryEditor: ta,
		resultView:  vp,
		keys:        keys,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

type queryResultMsg struct {
	result database.QueryResult
	err    error
}

func (m Model) executeQuery(query string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.database.ExecuteQuery(query)
		return queryResultMsg{result: result, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queryEditor.SetWidth(msg.Width - 6)
		m.resultView.Width = msg.Width - 6
		m.resultView.Height = msg.Height - 12

	case queryResultMsg:
		m.resultView.SetContent(renderResult(msg.result, msg.err))
		m.resultView.GotoTop()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			query := strings.TrimSpace(m.queryEditor.Value())
			if query == "" {
				break
			}
			m.history = append(m.history, query)
			m.queryEditor.Reset()
			return m, m.executeQuery(query)

		case key.Matches(msg, m.keys.Clear):
			m.queryEditor.Reset()

		case key.Matches(msg, m.keys.ShowTables):
			return m, m.executeQuery("SHOW TABLES")

		case key.Matches(msg, m.keys.ScrollUp):
			m.resultView.LineUp(3)

		case key.Matches(msg, m.keys.ScrollDown):
			m.resultView.LineDown(3)
		}
	}

	var cmd tea.Cmd
	m.queryEditor, cmd = m.queryEditor.Update(msg)
	cmds = append(cmds, cmd)
	m.resultView, cmd = m.resultView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	title := titleStyle.Render(fmt.Sprintf("minidb · %s", m.database.Name()))
	status := statusBarStyle.Render(fmt.Sprintf(
		"%d queries · ctrl+j run · ctrl+t tables · ctrl+c quit", len(m.history)))

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.resultView.View(),
		m.queryEditor.View(),
		status,
	))
}

// renderResult formats a query outcome for the viewport.
func renderResult(result database.QueryResult, err error) string {
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	var sb strings.Builder
	if len(result.Columns) > 0 {
		sb.WriteString(renderTable(result.Columns, result.Rows))
		sb.WriteString("\n")
	}
	sb.WriteString(successStyle.Render(
		fmt.Sprintf("%s (%s)", result.Message, result.Duration.Round(time.Microsecond))))
	return sb.String()
}

// renderTable lays out rows under padded column headers.
func renderTable(columns []string, rows [][]string) string {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	for i, col := range columns {
		sb.WriteString(tableHeaderStyle.Render(pad(col, widths[i])))
		if i < len(columns)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			sb.WriteString(cellStyle.Render(pad(cell, widths[i])))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Run starts the interactive shell and blocks until it exits.
func Run(db *database.Database) error {
	program := tea.NewProgram(NewModel(db), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
