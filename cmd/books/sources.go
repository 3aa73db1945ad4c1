package books

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GiuseppeMinardi/book-library/internal/csvutil"
)

// sheetBaseURL is a package variable so tests can point at a test server.
var sheetBaseURL = "https://docs.google.com/spreadsheets"

// firstColumn pulls the ISBN out of one CSV record. Blank cells are
// rejected so the processor can skip them.
func firstColumn(record []string) (string, error) {
	if len(record) == 0 {
		return "", fmt.Errorf("empty record")
	}
	value := strings.TrimSpace(record[0])
	if value == "" {
		return "", fmt.Errorf("blank ISBN cell")
	}
	return value, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// LoadISBNsFromCSV reads ISBNs from the first column of a CSV file.
// The header row is skipped, blank cells are dropped and duplicates
// collapse to one entry.
func LoadISBNsFromCSV(path string) ([]string, error) {
	isbns, err := csvutil.ProcessCSV(path, firstColumn, csvutil.ProcessorOptions{
		FieldsPerRecord: -1,
		SkipInvalid:     true,
	})
	if err != nil {
		return nil, err
	}
	return dedupe(isbns), nil
}

// SheetExportURL builds the CSV export URL for a Google Sheets document.
func SheetExportURL(sheetID string) string {
	return fmt.Sprintf("%s/d/%s/export?format=csv", sheetBaseURL, sheetID)
}

// LoadISBNsFromSheet downloads a Google Sheets document as CSV and reads
// ISBNs the same way as a local file.
func LoadISBNsFromSheet(sheetID string) ([]string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(SheetExportURL(sheetID))
	if err != nil {
		return nil, fmt.Errorf("failed to download sheet: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet download returned status %d", resp.StatusCode)
	}

	isbns, err := csvutil.ProcessReader(resp.Body, firstColumn, csvutil.ProcessorOptions{
		FieldsPerRecord: -1,
		SkipInvalid:     true,
	})
	if err != nil {
		return nil, err
	}
	return dedupe(isbns), nil
}
