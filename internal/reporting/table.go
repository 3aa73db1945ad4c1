package reporting

import (
	"fmt"
	"strconv"

	"github.com/GiuseppeMinardi/book-library/internal/catalog"
)

// Table is a report result with its column order preserved, for rendering.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RunTable executes the report and keeps the SELECT column order, which
// the map form of Run cannot do.
func RunTable(store *catalog.Store, r Report) (Table, error) {
	rows, err := store.DB().Query(r.SQL, r.Args...)
	if err != nil {
		return Table{}, fmt.Errorf("failed to run report %s: %w", r.Name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read report columns: %w", err)
	}

	table := Table{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, fmt.Errorf("failed to scan report row: %w", err)
		}

		cells := make([]string, len(cols))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("failed to read report rows: %w", err)
	}

	return table, nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
