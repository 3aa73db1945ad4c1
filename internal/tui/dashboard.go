// Package tui provides the interactive report dashboard.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/reporting"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}

// RunReport executes one report and returns its ordered result table.
type RunReport func(r reporting.Report) (reporting.Table, error)

type reportItem struct {
	report reporting.Report
}

func (i reportItem) Title() string       { return i.report.Title }
func (i reportItem) Description() string { return i.report.Name }
func (i reportItem) FilterValue() string { return i.report.Title }

type itemStyles struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	name     lipgloss.Style
}

func newItemStyles() itemStyles {
	normal := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(lipgloss.Color("252"))

	selected := normal.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237")).
		Bold(true)

	return itemStyles{
		normal:   normal,
		selected: selected,
		name: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Faint(true),
	}
}

type reportDelegate struct {
	styles itemStyles
}

func newDelegate() reportDelegate {
	return reportDelegate{styles: newItemStyles()}
}

func (d reportDelegate) Height() int                         { return 1 }
func (d reportDelegate) Spacing() int                        { return 0 }
func (d reportDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d reportDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	report, ok := item.(reportItem)
	if !ok {
		return
	}

	line := fmt.Sprintf("%-32s %s", report.Title(), d.styles.name.Render(report.Description()))

	style := d.styles.normal
	if idx == m.Index() {
		style = d.styles.selected
	}
	_, _ = fmt.Fprint(w, style.Render(line))
}

type viewMode int

const (
	modeBrowse viewMode = iota
	modeTable
)

type dashboardModel struct {
	list   list.Model
	run    RunReport
	mode   viewMode
	title  string
	table  reporting.Table
	errMsg string
	width  int
}

func newDashboardModel(reports []reporting.Report, run RunReport) *dashboardModel {
	items := make([]list.Item, len(reports))
	for i, r := range reports {
		items[i] = reportItem{report: r}
	}

	l := list.New(items, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()

	return &dashboardModel{
		list:  l,
		run:   run,
		mode:  modeBrowse,
		width: defaultListWidth,
	}
}

func (m *dashboardModel) Init() tea.Cmd { return nil }

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if m.mode != modeBrowse {
				break
			}
			selected, ok := m.list.SelectedItem().(reportItem)
			if !ok {
				break
			}
			m.title = selected.report.Title
			m.errMsg = ""
			table, err := m.run(selected.report)
			if err != nil {
				m.errMsg = err.Error()
			} else {
				m.table = table
			}
			m.mode = modeTable
			return m, nil
		case "esc", "backspace":
			if m.mode == modeTable {
				m.mode = modeBrowse
				return m, nil
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	if m.mode == modeBrowse {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *dashboardModel) View() string {
	switch m.mode {
	case modeTable:
		return m.tableView()
	default:
		header := headerStyle.Render("Library Reports")
		help := helpStyle.Render("Up/Down navigate | Enter run report | q quit")
		return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), help)
	}
}

func (m *dashboardModel) tableView() string {
	header := headerStyle.Render(m.title)
	help := helpStyle.Render("Esc back | q quit")

	var body string
	switch {
	case m.errMsg != "":
		body = errStyle.Render(m.errMsg)
	case len(m.table.Rows) == 0:
		body = helpStyle.Render("No rows.")
	default:
		body = renderTable(m.table)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

// renderTable lays the result out as a fixed-width text table.
func renderTable(t reporting.Table) string {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	formatRow := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.Join(parts, "  ")
	}

	lines := []string{
		tableHeaderStyle.Render(formatRow(t.Columns)),
	}
	for _, row := range t.Rows {
		lines = append(lines, tableRowStyle.Render(formatRow(row)))
	}
	return strings.Join(lines, "\n")
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("161"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("110"))

	tableRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Dashboard runs the interactive report browser against the store.
func Dashboard(store *catalog.Store) error {
	m := newDashboardModel(reporting.Catalog(), func(r reporting.Report) (reporting.Table, error) {
		return reporting.RunTable(store, r)
	})
	_, err := runProgram(m)
	return err
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
