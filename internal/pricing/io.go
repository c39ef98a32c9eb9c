package pricing

import (
	"fmt"
	"strconv"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// SummaryHeader is the column layout of a written summary.
var SummaryHeader = []string{"ISO3", "Country", "Carbon Tax", "ETS"}

// Records renders summary rows under SummaryHeader.
func Records(rows []Adoption) [][]string {
	out := make([][]string, 0, len(rows))
	for _, a := range rows {
		out = append(out, []string{a.ISO3, a.Country, strconv.Itoa(a.CarbonTax), strconv.Itoa(a.ETS)})
	}
	return out
}

// WriteSummary replaces path with the summary as comma-separated text.
func WriteSummary(path string, rows []Adoption) error {
	if err := analysis.WriteCSV(path, SummaryHeader, Records(rows)); err != nil {
		return fmt.Errorf("write tax summary: %w", err)
	}
	return nil
}

// ReadSummary loads a summary file. Year cells that do not parse count as 0.
func ReadSummary(path string) ([]Adoption, error) {
	t, err := analysis.ReadCSV(path, analysis.DefaultOptions())
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(SummaryHeader))
	for i, name := range SummaryHeader {
		if idx[i], err = t.MustIndex(name); err != nil {
			return nil, err
		}
	}
	opt := analysis.DefaultOptions()
	year := func(s string) int {
		v, ok := analysis.ParseNumeric(s, opt)
		if !ok {
			return 0
		}
		return int(v)
	}
	out := make([]Adoption, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, Adoption{
			ISO3:      row[idx[0]],
			Country:   row[idx[1]],
			CarbonTax: year(row[idx[2]]),
			ETS:       year(row[idx[3]]),
		})
	}
	return out, nil
}
