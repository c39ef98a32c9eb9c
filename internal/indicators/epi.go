package indicators

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// DefaultEPIYear is the index edition shown when none is selected.
const DefaultEPIYear = 2024

// Trend arrows.
const (
	ArrowUp   = "↑"
	ArrowDown = "↓"
	ArrowFlat = "→"
)

// EPIRecord is one region's index score for one edition.
type EPIRecord struct {
	Region string  `json:"region"`
	Year   int     `json:"year"`
	Value  float64 `json:"value"`
	Trend  float64 `json:"trend"`
}

// Rank is an EPIRecord prepared for display.
type Rank struct {
	EPIRecord
	Arrow        string `json:"arrow"`
	TrendDisplay string `json:"trend_display"`
}

// EPI is the loaded index.
type EPI struct {
	records []EPIRecord
}

// LoadEPI reads the semicolon-delimited region;date;value;trend export.
func LoadEPI(path string) (*EPI, error) {
	opt := analysis.DefaultOptions()
	opt.Delimiter = ';'
	t, err := analysis.ReadCSV(path, opt)
	if err != nil {
		return nil, err
	}
	return EPIFromTable(t)
}

// EPIFromTable builds the index from a loaded table, skipping rows whose
// date or value do not parse. A missing trend counts as flat.
func EPIFromTable(t *analysis.Table) (*EPI, error) {
	idx := map[string]int{}
	for _, name := range []string{"region", "date", "value", "trend"} {
		i, err := t.MustIndex(name)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}
	opt := analysis.DefaultOptions()
	e := &EPI{}
	for _, row := range t.Rows {
		region := strings.TrimSpace(row[idx["region"]])
		y, ok := analysis.ParseNumeric(row[idx["date"]], opt)
		if region == "" || !ok {
			continue
		}
		v, ok := analysis.ParseNumeric(row[idx["value"]], opt)
		if !ok {
			continue
		}
		tr, _ := analysis.ParseNumeric(row[idx["trend"]], opt)
		e.records = append(e.records, EPIRecord{Region: region, Year: int(y), Value: v, Trend: tr})
	}
	return e, nil
}

// Regions lists the distinct region names, sorted.
func (e *EPI) Regions() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range e.records {
		if _, ok := seen[r.Region]; !ok {
			seen[r.Region] = struct{}{}
			out = append(out, r.Region)
		}
	}
	sort.Strings(out)
	return out
}

// Ranking returns the records of the given regions for year, sorted by value
// ascending. Region names match case-insensitively.
func (e *EPI) Ranking(regions []string, year int) []Rank {
	want := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		want[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	var out []Rank
	for _, r := range e.records {
		if r.Year != year {
			continue
		}
		if _, ok := want[strings.ToLower(r.Region)]; !ok {
			continue
		}
		arrow := TrendArrow(r.Trend)
		out = append(out, Rank{
			EPIRecord:    r,
			Arrow:        arrow,
			TrendDisplay: fmt.Sprintf("%s %.1f", arrow, math.Abs(r.Trend)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// TrendArrow renders the direction of a trend value.
func TrendArrow(v float64) string {
	switch {
	case v > 0:
		return ArrowUp
	case v < 0:
		return ArrowDown
	}
	return ArrowFlat
}
