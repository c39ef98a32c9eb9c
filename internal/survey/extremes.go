package survey

import (
	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
)

// MaxSuffix is appended to question codes in the Extremes table.
const MaxSuffix = "_max"

// Extremes profiles each question column: the largest positive raw value per
// (country, wave), in a column named <code>_max. Scales are not recoded.
// Columns without any positive value are left out.
func (a *Aggregator) Extremes(t *analysis.Table, questions *lookup.Questions) (*Wide, error) {
	ci, err := t.MustIndex(a.opt.CountryColumn)
	if err != nil {
		return nil, err
	}
	wi, err := t.MustIndex(a.opt.WaveColumn)
	if err != nil {
		return nil, err
	}
	l := &Long{}
	for _, q := range questions.Present(t.Header).Codes() {
		if _, ok := a.opt.metadataPrefix(q); ok {
			continue
		}
		col := t.Index(q)
		name := q + MaxSuffix
		best := map[Key]float64{}
		var order []Key
		for _, row := range t.Rows {
			k := rowKey(row, ci, wi)
			if k.Country == "" || k.Wave == "" {
				continue
			}
			v, ok := analysis.ParseNumeric(row[col], a.opt.Numeric)
			if !ok || v <= 0 {
				continue
			}
			cur, seen := best[k]
			if !seen {
				order = append(order, k)
			}
			if !seen || v > cur {
				best[k] = v
			}
		}
		if len(order) == 0 {
			continue
		}
		sortKeys(order)
		l.Questions = append(l.Questions, name)
		for _, k := range order {
			l.Cells = append(l.Cells, Cell{Key: k, Question: name, Value: best[k]})
		}
	}
	return Pivot(l)
}
