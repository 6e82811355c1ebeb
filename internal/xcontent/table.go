package xcontent

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Table is a tabular response. It renders as aligned text, csv or tsv, and as
// a list of row objects in structured syntaxes.
type Table struct {
	Columns []string
	Rows    [][]string
	// Header prints the column names first in tabular output unless the
	// response media type says otherwise.
	Header bool
}

func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Records returns one object per row keyed by column name.
func (t *Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}

func (t *Table) render(syntax string, opts Options) ([]byte, error) {
	header := t.Header
	switch opts.Header {
	case "present":
		header = true
	case "absent":
		header = false
	}

	rows := t.Rows
	if header {
		rows = append([][]string{t.Columns}, rows...)
	}

	var buf bytes.Buffer
	switch syntax {
	case Text:
		w := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', 0)
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		if err := w.Flush(); err != nil {
			return nil, err
		}
	case CSV, TSV:
		w := csv.NewWriter(&buf)
		if syntax == TSV {
			w.Comma = '\t'
		}
		if err := w.WriteAll(rows); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, syntax)
	}
	return buf.Bytes(), nil
}
