// Package indicators loads the country-level environmental indicators shown
// next to the survey results: CO2 emissions per capita and the Environmental
// Performance Index.
package indicators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// Default CO2 window.
const (
	DefaultFrom = 1981
	DefaultTo   = 2023
)

// CO2 file columns. Other columns are ignored.
const (
	ColISOCode      = "iso_code"
	ColYear         = "year"
	ColCO2PerCapita = "co2_per_capita"
)

// Point is one yearly observation.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is one country's observations in year order.
type Series struct {
	Code   string  `json:"code"`
	Points []Point `json:"points"`
}

// Emissions holds per-capita CO2 by ISO3 code.
type Emissions struct {
	byCode map[string][]Point
}

// LoadCO2 reads an emissions file with iso_code, year and co2_per_capita columns.
func LoadCO2(path string) (*Emissions, error) {
	t, err := analysis.ReadCSV(path, analysis.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return EmissionsFromTable(t)
}

// EmissionsFromTable builds Emissions from a loaded table. Rows without a code,
// a year or a value are skipped; aggregate regions without an ISO code are
// therefore dropped.
func EmissionsFromTable(t *analysis.Table) (*Emissions, error) {
	ci, err := t.MustIndex(ColISOCode)
	if err != nil {
		return nil, err
	}
	yi, err := t.MustIndex(ColYear)
	if err != nil {
		return nil, err
	}
	vi, err := t.MustIndex(ColCO2PerCapita)
	if err != nil {
		return nil, err
	}
	opt := analysis.Options{DecimalSeparator: '.'}
	e := &Emissions{byCode: map[string][]Point{}}
	for _, row := range t.Rows {
		code := strings.ToUpper(strings.TrimSpace(row[ci]))
		if code == "" {
			continue
		}
		y, ok := analysis.ParseNumeric(row[yi], opt)
		if !ok {
			continue
		}
		v, ok := analysis.ParseNumeric(row[vi], opt)
		if !ok {
			continue
		}
		e.byCode[code] = append(e.byCode[code], Point{Year: int(y), Value: v})
	}
	for code, pts := range e.byCode {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Year < pts[j].Year })
		e.byCode[code] = pts
	}
	return e, nil
}

// Codes lists the countries with data, sorted.
func (e *Emissions) Codes() []string {
	out := make([]string, 0, len(e.byCode))
	for c := range e.byCode {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Series returns the observations for codes within [from, to], in the order
// codes are given. Countries with no points in the window are omitted.
func (e *Emissions) Series(codes []string, from, to int) ([]Series, error) {
	if from > to {
		return nil, fmt.Errorf("invalid year window %d-%d", from, to)
	}
	var out []Series
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		var pts []Point
		for _, p := range e.byCode[c] {
			if p.Year >= from && p.Year <= to {
				pts = append(pts, p)
			}
		}
		if len(pts) > 0 {
			out = append(out, Series{Code: c, Points: pts})
		}
	}
	return out, nil
}
