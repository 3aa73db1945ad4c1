package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/GiuseppeMinardi/book-library/internal/reporting"
)

func testReports() []reporting.Report {
	return []reporting.Report{
		{Name: "summary", Title: "Library Overview", SQL: "SELECT 1"},
		{Name: "books-by-language", Title: "Books by Language", SQL: "SELECT 1"},
	}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func TestEnterRunsSelectedReport(t *testing.T) {
	var ran []string
	m := newDashboardModel(testReports(), func(r reporting.Report) (reporting.Table, error) {
		ran = append(ran, r.Name)
		return reporting.Table{
			Columns: []string{"language", "book_count"},
			Rows:    [][]string{{"en", "3"}},
		}, nil
	})

	updated, _ := m.Update(keyMsg("enter"))
	model := updated.(*dashboardModel)

	if len(ran) != 1 || ran[0] != "summary" {
		t.Errorf("expected the selected report to run once, got %v", ran)
	}
	if model.mode != modeTable {
		t.Errorf("expected table mode after enter, got %v", model.mode)
	}

	view := model.View()
	if !strings.Contains(view, "Library Overview") {
		t.Errorf("table view missing report title: %q", view)
	}
	if !strings.Contains(view, "en") || !strings.Contains(view, "book_count") {
		t.Errorf("table view missing result cells: %q", view)
	}
}

func TestEscReturnsToBrowse(t *testing.T) {
	m := newDashboardModel(testReports(), func(r reporting.Report) (reporting.Table, error) {
		return reporting.Table{Columns: []string{"n"}}, nil
	})

	updated, _ := m.Update(keyMsg("enter"))
	model := updated.(*dashboardModel)

	updated, _ = model.Update(keyMsg("esc"))
	model = updated.(*dashboardModel)
	if model.mode != modeBrowse {
		t.Errorf("expected browse mode after esc, got %v", model.mode)
	}
}

func TestReportErrorIsShownNotFatal(t *testing.T) {
	m := newDashboardModel(testReports(), func(r reporting.Report) (reporting.Table, error) {
		return reporting.Table{}, errors.New("no such table: books")
	})

	updated, _ := m.Update(keyMsg("enter"))
	model := updated.(*dashboardModel)

	if model.mode != modeTable {
		t.Errorf("expected table mode, got %v", model.mode)
	}
	if !strings.Contains(model.View(), "no such table") {
		t.Errorf("expected the error in the view, got %q", model.View())
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m := newDashboardModel(testReports(), nil)

		msg := keyMsg(key)
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("expected quit command for %q", key)
		}
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(reporting.Table{
		Columns: []string{"name", "book_count"},
		Rows: [][]string{
			{"George Orwell", "2"},
			{"Italo Calvino", "1"},
		},
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "George Orwell") {
		t.Errorf("row rendering wrong: %q", lines[1])
	}
}
