package survey

import (
	"fmt"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// DefaultKeyNames label the key columns of written tables.
var DefaultKeyNames = [2]string{"Country", "Wave"}

// Records renders w as a header plus string rows. Absent values become empty
// cells and floats use their shortest round-trip form, so equal tables always
// encode to equal bytes.
func Records(w *Wide, keyNames [2]string) ([]string, [][]string) {
	header := append([]string{keyNames[0], keyNames[1]}, w.Questions...)
	rows := make([][]string, 0, len(w.Rows))
	for _, r := range w.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.Country, r.Wave)
		for _, q := range w.Questions {
			if v, ok := r.Values[q]; ok {
				rec = append(rec, analysis.FormatFloat(v))
			} else {
				rec = append(rec, "")
			}
		}
		rows = append(rows, rec)
	}
	return header, rows
}

// WriteWide replaces path with the comma-separated form of w.
func WriteWide(path string, w *Wide, keyNames [2]string) error {
	header, rows := Records(w, keyNames)
	if err := analysis.WriteCSV(path, header, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadWide loads a table written by WriteWide, or any delimited file whose
// first two columns are country and wave. Empty and non-numeric cells are
// treated as absent.
func ReadWide(path string) (*Wide, error) {
	t, err := analysis.ReadCSV(path, analysis.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return FromTable(t)
}

// FromTable interprets an already loaded table as a wide table.
func FromTable(t *analysis.Table) (*Wide, error) {
	if len(t.Header) < 2 {
		return nil, fmt.Errorf("%s: need country and wave columns, got %d columns", t.Name, len(t.Header))
	}
	opt := analysis.DefaultOptions()
	l := &Long{Questions: append([]string(nil), t.Header[2:]...)}
	for _, row := range t.Rows {
		k := rowKey(row, 0, 1)
		if k.Country == "" || k.Wave == "" {
			continue
		}
		for i, q := range t.Header[2:] {
			if v, ok := analysis.ParseNumeric(row[i+2], opt); ok {
				l.Cells = append(l.Cells, Cell{Key: k, Question: q, Value: v})
			}
		}
	}
	w, err := Pivot(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	return w, nil
}
