package dashboard

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/climatelens-cli/internal/indicators"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
)

// Point is one (x, y) value of a line.
type Point struct {
	X     string  `json:"x"`
	Value float64 `json:"value"`
}

// Line is one country's series.
type Line struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// TrendView is the mean response per wave, one line per country.
type TrendView struct {
	Question string   `json:"question"`
	Label    string   `json:"label"`
	Title    string   `json:"title"`
	XLabel   string   `json:"x_label"`
	YLabel   string   `json:"y_label"`
	Legend   string   `json:"legend"`
	Lines    []Line   `json:"lines"`
	Waves    []string `json:"waves"`
}

// Trends filters the means table by countries and waves for one question.
func (d *Dashboard) Trends(sel Selection) (*TrendView, error) {
	if d.data.Means == nil {
		return nil, fmt.Errorf("%w: means", ErrNotLoaded)
	}
	sel, err := d.resolve(sel, d.data.Means)
	if err != nil {
		return nil, err
	}
	if sel.Question == "" {
		return nil, noData("No available questions found in the precomputed data.")
	}
	label := d.catalog.Questions.Label(sel.Question)
	v := &TrendView{
		Question: sel.Question,
		Label:    label,
		Title:    fmt.Sprintf("Responses to '%s'", label),
		XLabel:   "Survey Wave",
		YLabel:   "Mean response",
		Legend:   d.catalog.Waves.Legend(),
	}
	byCode := map[string]*Line{}
	waves := map[string]struct{}{}
	for _, r := range d.data.Means.Rows {
		if !contains(sel.Countries, r.Country) || !contains(sel.Waves, r.Wave) {
			continue
		}
		val, ok := r.Values[sel.Question]
		if !ok {
			continue
		}
		ln := byCode[r.Country]
		if ln == nil {
			ln = &Line{Code: r.Country, Name: d.catalog.Countries.Name(r.Country)}
			byCode[r.Country] = ln
		}
		ln.Points = append(ln.Points, Point{X: r.Wave, Value: val})
		waves[r.Wave] = struct{}{}
	}
	if len(byCode) == 0 {
		return nil, noData("No data available for the selected question '%s' with the chosen countries and waves.", label)
	}
	// lines follow the selection order
	for _, c := range sel.Countries {
		if ln, ok := byCode[c]; ok {
			v.Lines = append(v.Lines, *ln)
		}
	}
	for _, w := range d.data.Means.Waves() {
		if _, ok := waves[w]; ok {
			v.Waves = append(v.Waves, w)
		}
	}
	return v, nil
}

// Bar is one country's value in a comparison.
type Bar struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// YouthView compares the youth percentage favorable across countries for one wave.
type YouthView struct {
	Question string `json:"question"`
	Label    string `json:"label"`
	Wave     string `json:"wave"`
	Title    string `json:"title"`
	YLabel   string `json:"y_label"`
	Bars     []Bar  `json:"bars"`
}

// Youth filters the percentage-favorable table by countries and a single
// wave. Bars are sorted by value, highest first.
func (d *Dashboard) Youth(sel Selection) (*YouthView, error) {
	if d.data.Youth == nil {
		return nil, fmt.Errorf("%w: youth", ErrNotLoaded)
	}
	sel, err := d.resolve(sel, d.data.Youth)
	if err != nil {
		return nil, err
	}
	if sel.Question == "" {
		return nil, noData("No available questions found in the youth data.")
	}
	label := d.catalog.Questions.Label(sel.Question)
	v := &YouthView{
		Question: sel.Question,
		Label:    label,
		Wave:     sel.Wave,
		Title:    fmt.Sprintf("Youth (under 29) favorable to \"%s\", wave %s", label, d.catalog.Waves.Label(sel.Wave)),
		YLabel:   "Percentage Favorable (%)",
	}
	if d.data.Youth.Has(sel.Question) {
		for _, r := range d.data.Youth.Rows {
			if r.Wave != sel.Wave || !contains(sel.Countries, r.Country) {
				continue
			}
			val, ok := r.Values[sel.Question]
			if !ok {
				continue
			}
			v.Bars = append(v.Bars, Bar{
				Code:  r.Country,
				Name:  d.catalog.Countries.Name(r.Country),
				Value: val,
				Text:  fmt.Sprintf("%.1f%%", val),
			})
		}
	}
	if len(v.Bars) == 0 {
		return nil, noData("No data available for '%s' with the chosen countries and wave.", label)
	}
	sort.SliceStable(v.Bars, func(i, j int) bool { return v.Bars[i].Value > v.Bars[j].Value })
	return v, nil
}

// EmissionsView is CO2 per capita over a year window, one series per country.
type EmissionsView struct {
	Title  string              `json:"title"`
	YLabel string              `json:"y_label"`
	From   int                 `json:"from"`
	To     int                 `json:"to"`
	Series []indicators.Series `json:"series"`
	Names  map[string]string   `json:"names"`
}

// Emissions returns the CO2 series of the selected countries.
func (d *Dashboard) Emissions(sel Selection) (*EmissionsView, error) {
	if d.data.CO2 == nil {
		return nil, fmt.Errorf("%w: co2", ErrNotLoaded)
	}
	sel, err := d.Resolve(sel)
	if err != nil {
		return nil, err
	}
	series, err := d.data.CO2.Series(sel.Countries, sel.From, sel.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSelection, err)
	}
	if len(series) == 0 {
		return nil, noData("No CO₂ data available for the chosen countries between %d and %d.", sel.From, sel.To)
	}
	v := &EmissionsView{
		Title:  fmt.Sprintf("CO₂ Emissions Per Capita Trends (%d–%d)", sel.From, sel.To),
		YLabel: "CO₂ Emissions Per Capita (Metric Tons)",
		From:   sel.From,
		To:     sel.To,
		Series: series,
		Names:  map[string]string{},
	}
	for _, s := range series {
		v.Names[s.Code] = d.catalog.Countries.Name(s.Code)
	}
	return v, nil
}

// PricingView is the instrument map data for every known country.
type PricingView struct {
	Title   string                        `json:"title"`
	Entries []pricing.MapEntry            `json:"entries"`
	Counts  map[pricing.Instrument]int    `json:"counts"`
	Colors  map[pricing.Instrument]string `json:"colors"`
}

// PricingMap joins the tax summary onto the country catalog and every
// country in the summary itself.
func (d *Dashboard) PricingMap() (*PricingView, error) {
	if d.data.Tax == nil {
		return nil, fmt.Errorf("%w: tax", ErrNotLoaded)
	}
	universe := d.catalog.Countries.Codes()
	for _, a := range d.data.Tax {
		universe = append(universe, a.ISO3)
	}
	entries := pricing.MapData(d.data.Tax, universe)
	if len(entries) == 0 {
		return nil, noData("No carbon pricing data available.")
	}
	return &PricingView{
		Title:   "Carbon Pricing Instruments Around the World",
		Entries: entries,
		Counts:  pricing.Counts(entries),
		Colors:  pricing.Colors,
	}, nil
}

// EPIView is the index ranking of the selected countries for one edition.
type EPIView struct {
	Title string            `json:"title"`
	Year  int               `json:"year"`
	Ranks []indicators.Rank `json:"ranks"`
}

// EPI ranks the selected countries, matched by display name, by index score.
func (d *Dashboard) EPI(sel Selection) (*EPIView, error) {
	if d.data.EPI == nil {
		return nil, fmt.Errorf("%w: epi", ErrNotLoaded)
	}
	sel, err := d.Resolve(sel)
	if err != nil {
		return nil, err
	}
	ranks := d.data.EPI.Ranking(d.CountryNames(sel.Countries), sel.Year)
	if len(ranks) == 0 {
		return nil, noData("No EPI data available for the chosen countries in %d.", sel.Year)
	}
	return &EPIView{
		Title: fmt.Sprintf("Environmental Performance Index (EPI) for Selected Countries (%d)", sel.Year),
		Year:  sel.Year,
		Ranks: ranks,
	}, nil
}

// WaveOptions lists the waves of the means table with their period labels.
func (d *Dashboard) WaveOptions() []string {
	if d.data.Means == nil {
		return nil
	}
	var out []string
	for _, w := range d.data.Means.Waves() {
		out = append(out, d.catalog.Waves.Label(w))
	}
	return out
}
