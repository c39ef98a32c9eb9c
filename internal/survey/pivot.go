package survey

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
)

// Key identifies one (country, wave) group.
type Key struct {
	Country string
	Wave    string
}

func (k Key) String() string { return k.Country + "/" + k.Wave }

// Less orders keys by country, then numerically by wave.
func (k Key) Less(o Key) bool {
	if k.Country != o.Country {
		return k.Country < o.Country
	}
	return lookup.LessWave(k.Wave, o.Wave)
}

// Cell is one long-format record.
type Cell struct {
	Key
	Question string
	Value    float64
}

// Long is a table with one row per (country, wave, question).
type Long struct {
	// Questions fixes the column order used when pivoting.
	Questions []string
	Cells     []Cell
}

// WideRow is one (country, wave) row; absent questions have no entry.
type WideRow struct {
	Key
	Values map[string]float64
}

// Wide is a table with one row per (country, wave) and one column per question.
type Wide struct {
	Questions []string
	Rows      []WideRow
}

// Pivot reshapes long records to wide form. Rows come out sorted by key.
// Questions seen in cells but missing from l.Questions are appended in order of
// first appearance. A repeated (key, question) pair is an error.
func Pivot(l *Long) (*Wide, error) {
	w := &Wide{Questions: append([]string(nil), l.Questions...)}
	known := make(map[string]struct{}, len(w.Questions))
	for _, q := range w.Questions {
		known[q] = struct{}{}
	}
	rows := map[Key]map[string]float64{}
	for _, c := range l.Cells {
		if _, ok := known[c.Question]; !ok {
			known[c.Question] = struct{}{}
			w.Questions = append(w.Questions, c.Question)
		}
		vals := rows[c.Key]
		if vals == nil {
			vals = map[string]float64{}
			rows[c.Key] = vals
		}
		if _, dup := vals[c.Question]; dup {
			return nil, fmt.Errorf("pivot: duplicate entry for %s %s", c.Key, c.Question)
		}
		vals[c.Question] = c.Value
	}
	keys := make([]Key, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sortKeys(keys)
	for _, k := range keys {
		w.Rows = append(w.Rows, WideRow{Key: k, Values: rows[k]})
	}
	return w, nil
}

// Melt reshapes a wide table back to long form, row by row in column order.
func Melt(w *Wide) *Long {
	l := &Long{Questions: append([]string(nil), w.Questions...)}
	for _, r := range w.Rows {
		for _, q := range w.Questions {
			if v, ok := r.Values[q]; ok {
				l.Cells = append(l.Cells, Cell{Key: r.Key, Question: q, Value: v})
			}
		}
	}
	return l
}

// Value looks up one cell.
func (w *Wide) Value(k Key, question string) (float64, bool) {
	for _, r := range w.Rows {
		if r.Key == k {
			v, ok := r.Values[question]
			return v, ok
		}
	}
	return 0, false
}

// Has reports whether question is a column of w.
func (w *Wide) Has(question string) bool {
	for _, q := range w.Questions {
		if q == question {
			return true
		}
	}
	return false
}

// Countries lists distinct country codes in row order.
func (w *Wide) Countries() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range w.Rows {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	return out
}

// Waves lists distinct waves sorted numerically.
func (w *Wide) Waves() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range w.Rows {
		if _, ok := seen[r.Wave]; ok {
			continue
		}
		seen[r.Wave] = struct{}{}
		out = append(out, r.Wave)
	}
	sort.SliceStable(out, func(i, j int) bool { return lookup.LessWave(out[i], out[j]) })
	return out
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
