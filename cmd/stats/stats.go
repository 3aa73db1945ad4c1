// Package stats implements the one-shot reporting commands and the
// dashboard launcher.
package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/embedding"
	"github.com/GiuseppeMinardi/book-library/internal/isbn"
	"github.com/GiuseppeMinardi/book-library/internal/reporting"
	"github.com/GiuseppeMinardi/book-library/internal/tui"
)

// output is a package variable so tests can capture what gets printed.
var output io.Writer = os.Stdout

// StatsWithParams opens the catalog and prints every report in the
// catalog of read queries.
func StatsWithParams(storePath string) error {
	store, err := catalog.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	// The coverage report reads the embedding tables, make sure they exist.
	if _, err := embedding.NewStore(store.DB()); err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}

	for _, report := range reporting.Catalog() {
		table, err := reporting.RunTable(store, report)
		if err != nil {
			return fmt.Errorf("failed to run report %s: %w", report.Name, err)
		}
		printReport(report.Title, table)
	}
	return nil
}

// SimilarWithParams prints the k nearest neighbours of one book by
// cosine similarity over its stored embedding.
func SimilarWithParams(storePath, rawISBN, modelName string, k int) error {
	normalized, err := isbn.NormalizeAndValidate(rawISBN)
	if err != nil {
		return err
	}

	store, err := catalog.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	emb, err := embedding.NewStore(store.DB())
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}

	neighbors, err := emb.SimilarBooks(normalized, modelName, k)
	if err != nil {
		return err
	}
	if len(neighbors) == 0 {
		fmt.Fprintf(output, "No neighbours found for %s with model %s\n", normalized, modelName)
		return nil
	}

	table := reporting.Table{Columns: []string{"title", "similarity"}}
	for _, n := range neighbors {
		table.Rows = append(table.Rows, []string{n.Title, fmt.Sprintf("%.4f", n.Similarity)})
	}
	printReport(fmt.Sprintf("Books similar to %s", normalized), table)
	return nil
}

// DashboardWithParams opens the catalog and starts the interactive
// report browser.
func DashboardWithParams(storePath string) error {
	store, err := catalog.Open(storePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := embedding.NewStore(store.DB()); err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}

	return tui.Dashboard(store)
}

func printReport(title string, table reporting.Table) {
	fmt.Fprintf(output, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
	if len(table.Rows) == 0 {
		fmt.Fprintln(output, "(no rows)")
		return
	}

	widths := make([]int, len(table.Columns))
	for i, col := range table.Columns {
		widths[i] = len(col)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(output, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(table.Columns)
	for _, row := range table.Rows {
		printRow(row)
	}
}
