package analysis

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

// Options controls how tabular data is read and analyzed.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in a report.
	SampleRows int
	// Delimiter for CSV. If 0, auto-detects among ',', ';', '\t' from the header line.
	Delimiter rune
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
}

// DefaultOptions returns reasonable defaults for reading survey exports.
func DefaultOptions() Options {
	return Options{
		MaxRows:    0,
		SampleRows: 5,
	}
}

// Table is an in-memory delimited-text table. Every row has len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	// Total counts data rows seen, including rows past MaxRows.
	Total int
}

// ErrMissingColumn is returned when a required column is absent from a table.
var ErrMissingColumn = errors.New("missing column")

// Index returns the position of the named column, or -1. Matching ignores
// surrounding whitespace and case.
func (t *Table) Index(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// MustIndex is Index that reports ErrMissingColumn for absent columns.
func (t *Table) MustIndex(name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("%w %q in %s", ErrMissingColumn, name, t.Name)
	}
	return i, nil
}

// Truncated reports whether MaxRows cut the table short.
func (t *Table) Truncated() bool { return t.Total > len(t.Rows) }

// ReadCSV loads a delimited file into a Table.
func ReadCSV(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSVFrom(f, filepath.Base(path), opt)
}

// ReadCSVFrom loads delimited text from r. An empty input yields an empty Table.
func ReadCSVFrom(in io.Reader, name string, opt Options) (*Table, error) {
	br := bufio.NewReader(in)
	delim := opt.Delimiter
	if delim == 0 {
		first, _ := br.Peek(peekSize(br))
		delim = SniffDelimiter(string(first))
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	t := &Table{Name: name}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	t.Header = header
	ncol := len(header)
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.Total+1, err)
		}
		t.Total++
		if len(t.Rows) >= maxRows {
			continue
		}
		row := make([]string, ncol)
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func peekSize(br *bufio.Reader) int {
	n := br.Size()
	if n > 4096 {
		n = 4096
	}
	return n
}

// SniffDelimiter picks the most frequent of ',', ';', '\t' on the first line.
// Comma wins ties.
func SniffDelimiter(sample string) rune {
	line := sample
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		line = sample[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// WriteCSV writes header and rows as comma-separated text, replacing path as a whole.
func WriteCSV(path string, header []string, rows [][]string) error {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return utils.SafeWriteFile(path, []byte(b.String()))
}

// ParseNumeric parses a cell as a float, honoring locale separators in opt.
// Percent signs and surrounding spaces are ignored.
func ParseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatFloat renders v in the shortest form that parses back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
