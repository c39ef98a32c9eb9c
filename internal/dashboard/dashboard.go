// Package dashboard implements the read-filter views over the precomputed
// tables. Every view is a pure function of the loaded data and a Selection;
// an empty result is reported as ErrNoData rather than an empty view.
package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/climatelens-cli/internal/indicators"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
)

// DefaultCountries is the initial country selection (ISO3).
var DefaultCountries = []string{"AUS", "CAN", "CHN", "RUS", "DEU", "CHE", "USA"}

// defaultIndex is the position of the question and youth wave selected initially.
const defaultIndex = 3

var (
	// ErrNoData marks a filter that matched nothing.
	ErrNoData = errors.New("no data")
	// ErrBadSelection marks a selection that names unknown inputs.
	ErrBadSelection = errors.New("bad selection")
	// ErrNotLoaded marks a view whose dataset was not provided.
	ErrNotLoaded = errors.New("dataset not loaded")
)

// NoDataError carries the message shown to the user for an empty result.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string { return e.Message }

func (e *NoDataError) Unwrap() error { return ErrNoData }

func noData(format string, args ...any) error {
	return &NoDataError{Message: fmt.Sprintf(format, args...)}
}

// Data is the set of loaded inputs. Any field may be nil; views that need a
// missing dataset return ErrNotLoaded.
type Data struct {
	Means *survey.Wide
	Youth *survey.Wide
	CO2   *indicators.Emissions
	Tax   []pricing.Adoption
	EPI   *indicators.EPI
}

// Defaults are the selection values used when a request leaves them unset.
// Zero fields fall back to DefaultCountries and the indicators package defaults.
type Defaults struct {
	Countries []string
	From      int
	To        int
	Year      int
}

func (df Defaults) filled() Defaults {
	out := df
	out.Countries = append([]string(nil), df.Countries...)
	if len(out.Countries) == 0 {
		out.Countries = append([]string(nil), DefaultCountries...)
	}
	if out.From == 0 {
		out.From = indicators.DefaultFrom
	}
	if out.To == 0 {
		out.To = indicators.DefaultTo
	}
	if out.Year == 0 {
		out.Year = indicators.DefaultEPIYear
	}
	return out
}

// Dashboard answers view requests over one Data set.
type Dashboard struct {
	catalog  *lookup.Catalog
	data     Data
	defaults Defaults
}

// New builds a Dashboard. A nil catalog uses the embedded defaults.
func New(catalog *lookup.Catalog, data Data, defaults Defaults) *Dashboard {
	if catalog == nil {
		catalog = lookup.Default()
	}
	return &Dashboard{catalog: catalog, data: data, defaults: defaults.filled()}
}

// Catalog returns the lookup tables in use.
func (d *Dashboard) Catalog() *lookup.Catalog { return d.catalog }

// Selection is the user's filter state. Countries may hold display names or
// ISO3 codes. Zero fields are filled by Resolve.
type Selection struct {
	Countries []string `json:"countries"`
	Waves     []string `json:"waves"`
	Question  string   `json:"question"`
	// Wave is the single wave of the youth comparison.
	Wave string `json:"wave"`
	From int    `json:"from"`
	To   int    `json:"to"`
	Year int    `json:"year"`
}

// questionTable is the table question choices come from: the means table,
// or the youth table when no means are loaded.
func (d *Dashboard) questionTable() *survey.Wide {
	if d.data.Means != nil {
		return d.data.Means
	}
	return d.data.Youth
}

// Questions lists the catalog questions that are columns of the means table
// (or of the youth table without means), in catalog order.
func (d *Dashboard) Questions() []lookup.Question {
	return d.questionsOf(d.questionTable())
}

func (d *Dashboard) questionsOf(w *survey.Wide) []lookup.Question {
	if w == nil {
		return nil
	}
	return d.catalog.Questions.Present(w.Questions).Entries()
}

// Resolve fills unset selection fields with the defaults and translates
// country names to codes. Unknown question codes are rejected.
func (d *Dashboard) Resolve(sel Selection) (Selection, error) {
	return d.resolve(sel, d.questionTable())
}

// resolve is Resolve with the question defaulted and checked against qt.
func (d *Dashboard) resolve(sel Selection, qt *survey.Wide) (Selection, error) {
	out := sel
	if len(out.Countries) == 0 {
		out.Countries = d.defaults.Countries
	}
	codes := make([]string, 0, len(out.Countries))
	seen := map[string]struct{}{}
	for _, c := range out.Countries {
		code := d.catalog.Countries.Code(c)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	out.Countries = codes

	if len(out.Waves) == 0 && d.data.Means != nil {
		out.Waves = d.data.Means.Waves()
	}
	if out.Question == "" {
		qs := d.questionsOf(qt)
		if len(qs) > defaultIndex {
			out.Question = qs[defaultIndex].Code
		} else if len(qs) > 0 {
			out.Question = qs[0].Code
		}
	} else if qt != nil && !qt.Has(out.Question) {
		return out, fmt.Errorf("%w: unknown question %q", ErrBadSelection, out.Question)
	}
	if out.Wave == "" && d.data.Youth != nil {
		if ws := d.data.Youth.Waves(); len(ws) > defaultIndex {
			out.Wave = ws[defaultIndex]
		} else if len(ws) > 0 {
			out.Wave = ws[len(ws)-1]
		}
	}
	if out.From == 0 {
		out.From = d.defaults.From
	}
	if out.To == 0 {
		out.To = d.defaults.To
	}
	if out.From > out.To {
		return out, fmt.Errorf("%w: year window %d-%d", ErrBadSelection, out.From, out.To)
	}
	if out.Year == 0 {
		out.Year = d.defaults.Year
	}
	return out, nil
}

// CountryNames translates codes to display names, keeping unknown codes as is.
func (d *Dashboard) CountryNames(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = d.catalog.Countries.Name(c)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
