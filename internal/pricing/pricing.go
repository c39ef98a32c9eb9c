// Package pricing summarizes when countries adopted carbon-pricing instruments
// and prepares the per-country instrument data behind the pricing map.
package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// Instrument is the carbon-pricing classification of a country.
type Instrument string

const (
	Both      Instrument = "Both"
	CarbonTax Instrument = "Carbon Tax"
	ETS       Instrument = "ETS"
	None      Instrument = "None"
)

// Colors are the map fills per instrument.
var Colors = map[Instrument]string{
	None:      "#e0e0e0",
	CarbonTax: "#66bb6a",
	ETS:       "#42a5f5",
	Both:      "#8e24aa",
}

// Raw table columns.
const (
	ColISO3      = "Economy ISO3"
	ColName      = "Economy Name"
	ColIndicator = "Indicator"
)

// indicators maps normalized indicator names to the instrument they evidence.
var indicators = map[string]Instrument{
	"ghg emission coverage": ETS,
	"prices in implemented carbon initiatives: rate 1 (us $/tco2e)":     CarbonTax,
	"revenue in implemented carbon pricing initiatives (us $, million)": CarbonTax,
}

// Adoption is one country's first implementation year per instrument; 0 means never.
type Adoption struct {
	ISO3      string `json:"iso3"`
	Country   string `json:"country"`
	CarbonTax int    `json:"carbon_tax"`
	ETS       int    `json:"ets"`
}

// Instrument classifies the adoption row.
func (a Adoption) Instrument() Instrument { return Classify(a) }

// Classify reports which instruments a country has implemented.
func Classify(a Adoption) Instrument {
	switch {
	case a.CarbonTax > 0 && a.ETS > 0:
		return Both
	case a.CarbonTax > 0:
		return CarbonTax
	case a.ETS > 0:
		return ETS
	}
	return None
}

// Summarize reduces a raw per-year indicator table (one column per year) to
// the earliest year each country shows a positive value for each instrument.
// Every country in the input gets a row, sorted by ISO3.
func Summarize(t *analysis.Table, log *zap.Logger) ([]Adoption, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ii, err := t.MustIndex(ColISO3)
	if err != nil {
		return nil, err
	}
	ni, err := t.MustIndex(ColName)
	if err != nil {
		return nil, err
	}
	di, err := t.MustIndex(ColIndicator)
	if err != nil {
		return nil, err
	}
	type yearCol struct {
		idx  int
		year int
	}
	var years []yearCol
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		if !isDigits(h) {
			continue
		}
		y, _ := strconv.Atoi(h)
		years = append(years, yearCol{idx: i, year: y})
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%s: no year columns", t.Name)
	}

	byCode := map[string]*Adoption{}
	unmapped := map[string]struct{}{}
	numOpt := analysis.DefaultOptions()
	for _, row := range t.Rows {
		code := strings.TrimSpace(row[ii])
		if code == "" {
			continue
		}
		a := byCode[code]
		if a == nil {
			a = &Adoption{ISO3: code, Country: strings.TrimSpace(row[ni])}
			byCode[code] = a
		}
		ind := strings.ToLower(strings.TrimSpace(row[di]))
		kind, ok := indicators[ind]
		if !ok {
			unmapped[ind] = struct{}{}
			continue
		}
		for _, yc := range years {
			v, ok := analysis.ParseNumeric(row[yc.idx], numOpt)
			if !ok || v <= 0 {
				continue
			}
			switch kind {
			case CarbonTax:
				a.CarbonTax = earliest(a.CarbonTax, yc.year)
			case ETS:
				a.ETS = earliest(a.ETS, yc.year)
			}
		}
	}
	for ind := range unmapped {
		log.Debug("ignoring indicator", zap.String("indicator", ind))
	}

	out := make([]Adoption, 0, len(byCode))
	for _, a := range byCode {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISO3 < out[j].ISO3 })
	log.Info("summarized carbon pricing", zap.Int("countries", len(out)), zap.Int("years", len(years)))
	return out, nil
}

// MapEntry is one country on the pricing map.
type MapEntry struct {
	Adoption
	Instrument Instrument `json:"instrument"`
	Color      string     `json:"color"`
}

// MapData left-joins universe (ISO3 codes) with the summary. Countries absent
// from the summary are shown as None with country name "Unknown". With an
// empty universe the summary's own countries are used.
func MapData(summary []Adoption, universe []string) []MapEntry {
	byCode := make(map[string]Adoption, len(summary))
	for _, a := range summary {
		byCode[strings.ToUpper(a.ISO3)] = a
	}
	if len(universe) == 0 {
		for _, a := range summary {
			universe = append(universe, a.ISO3)
		}
	}
	codes := append([]string(nil), universe...)
	sort.Strings(codes)
	out := make([]MapEntry, 0, len(codes))
	seen := map[string]struct{}{}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		a, ok := byCode[c]
		if !ok {
			a = Adoption{ISO3: c, Country: "Unknown"}
		}
		inst := Classify(a)
		out = append(out, MapEntry{Adoption: a, Instrument: inst, Color: Colors[inst]})
	}
	return out
}

// Counts tallies map entries per instrument.
func Counts(entries []MapEntry) map[Instrument]int {
	out := map[Instrument]int{}
	for _, e := range entries {
		out[e.Instrument]++
	}
	return out
}

func earliest(cur, year int) int {
	if cur == 0 || year < cur {
		return year
	}
	return cur
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
