// Package lookup holds the read-only catalogs the dashboard translates through:
// country codes to display names, question codes to labels, and survey waves
// to their fieldwork periods. Catalogs are built once and passed to whoever
// needs them; nothing here is mutated after construction.
package lookup

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Country is one ISO alpha-3 code and its display name.
type Country struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Question is one survey question code and its human-readable label.
type Question struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// Wave is a survey round and the years it was fielded.
type Wave struct {
	Wave   string `yaml:"wave"`
	Period string `yaml:"period"`
}

// Countries translates between ISO3 codes and display names.
type Countries struct {
	codes  []string
	names  map[string]string
	byName map[string]string
}

// NewCountries builds a catalog; later duplicates of a code are ignored.
func NewCountries(entries []Country) *Countries {
	c := &Countries{names: map[string]string{}, byName: map[string]string{}}
	for _, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		name := strings.TrimSpace(e.Name)
		if code == "" {
			continue
		}
		if _, dup := c.names[code]; dup {
			continue
		}
		if name == "" {
			name = code
		}
		c.codes = append(c.codes, code)
		c.names[code] = name
		if _, ok := c.byName[strings.ToLower(name)]; !ok {
			c.byName[strings.ToLower(name)] = code
		}
	}
	sort.Strings(c.codes)
	return c
}

// Name returns the display name for code, or code itself when unknown.
func (c *Countries) Name(code string) string {
	if c != nil {
		if n, ok := c.names[strings.ToUpper(strings.TrimSpace(code))]; ok {
			return n
		}
	}
	return code
}

// Code resolves a display name (or a code) to its ISO3 code. Unknown input is
// returned unchanged so raw codes pass through.
func (c *Countries) Code(name string) string {
	if c == nil {
		return name
	}
	key := strings.TrimSpace(name)
	if code, ok := c.byName[strings.ToLower(key)]; ok {
		return code
	}
	if _, ok := c.names[strings.ToUpper(key)]; ok {
		return strings.ToUpper(key)
	}
	return key
}

// Has reports whether code is in the catalog.
func (c *Countries) Has(code string) bool {
	if c == nil {
		return false
	}
	_, ok := c.names[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Codes returns all codes in sorted order.
func (c *Countries) Codes() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.codes...)
}

// Len is the number of countries.
func (c *Countries) Len() int {
	if c == nil {
		return 0
	}
	return len(c.codes)
}

// Questions is an ordered code-to-label mapping.
type Questions struct {
	entries []Question
	idx     map[string]int
}

// NewQuestions keeps the given order; later duplicates of a code are ignored.
func NewQuestions(entries []Question) *Questions {
	q := &Questions{idx: map[string]int{}}
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			continue
		}
		if _, dup := q.idx[code]; dup {
			continue
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			label = code
		}
		q.idx[code] = len(q.entries)
		q.entries = append(q.entries, Question{Code: code, Label: label})
	}
	return q
}

// Label returns the label for code, or code itself when unknown.
func (q *Questions) Label(code string) string {
	if q != nil {
		if i, ok := q.idx[code]; ok {
			return q.entries[i].Label
		}
	}
	return code
}

// Has reports whether code is in the catalog.
func (q *Questions) Has(code string) bool {
	if q == nil {
		return false
	}
	_, ok := q.idx[code]
	return ok
}

// Codes returns codes in catalog order.
func (q *Questions) Codes() []string {
	if q == nil {
		return nil
	}
	out := make([]string, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Code
	}
	return out
}

// Entries returns a copy of the catalog entries in order.
func (q *Questions) Entries() []Question {
	if q == nil {
		return nil
	}
	return append([]Question(nil), q.entries...)
}

// Len is the number of questions.
func (q *Questions) Len() int {
	if q == nil {
		return 0
	}
	return len(q.entries)
}

// Present restricts the catalog to codes that appear in columns, keeping catalog order.
func (q *Questions) Present(columns []string) *Questions {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[strings.TrimSpace(c)] = struct{}{}
	}
	var keep []Question
	for _, e := range q.Entries() {
		if _, ok := have[e.Code]; ok {
			keep = append(keep, e)
		}
	}
	return NewQuestions(keep)
}

// Waves maps wave identifiers to fieldwork periods.
type Waves struct {
	entries []Wave
	period  map[string]string
}

// NewWaves builds a wave catalog sorted by wave number.
func NewWaves(entries []Wave) *Waves {
	w := &Waves{period: map[string]string{}}
	for _, e := range entries {
		id := strings.TrimSpace(e.Wave)
		if id == "" {
			continue
		}
		if _, dup := w.period[id]; dup {
			continue
		}
		w.period[id] = strings.TrimSpace(e.Period)
		w.entries = append(w.entries, Wave{Wave: id, Period: w.period[id]})
	}
	sort.SliceStable(w.entries, func(i, j int) bool { return LessWave(w.entries[i].Wave, w.entries[j].Wave) })
	return w
}

// Label renders "5: 2005-2009", or the bare wave when the period is unknown.
func (w *Waves) Label(wave string) string {
	if w != nil {
		if p, ok := w.period[wave]; ok && p != "" {
			return wave + ": " + p
		}
	}
	return wave
}

// Legend joins every known wave label, e.g. for a selector caption.
func (w *Waves) Legend() string {
	if w == nil {
		return ""
	}
	parts := make([]string, 0, len(w.entries))
	for _, e := range w.entries {
		parts = append(parts, w.Label(e.Wave))
	}
	return strings.Join(parts, ", ")
}

// LessWave orders wave identifiers numerically when both parse as numbers.
func LessWave(a, b string) bool {
	fa, ea := strconv.ParseFloat(a, 64)
	fb, eb := strconv.ParseFloat(b, 64)
	switch {
	case ea == nil && eb == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case ea == nil:
		return true
	case eb == nil:
		return false
	}
	return a < b
}

// Catalog bundles the three lookup tables.
type Catalog struct {
	Countries *Countries
	Questions *Questions
	Waves     *Waves
}

type catalogFile struct {
	Countries []Country  `yaml:"countries"`
	Questions []Question `yaml:"questions"`
	Waves     []Wave     `yaml:"waves"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := parseCatalog(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("lookup: embedded defaults: %v", err))
	}
	return c
}

func parseCatalog(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &Catalog{
		Countries: NewCountries(f.Countries),
		Questions: NewQuestions(f.Questions),
		Waves:     NewWaves(f.Waves),
	}, nil
}

// With returns a copy of c with any non-nil replacement catalogs swapped in.
func (c *Catalog) With(countries *Countries, questions *Questions) *Catalog {
	out := *c
	if countries != nil {
		out.Countries = countries
	}
	if questions != nil {
		out.Questions = questions
	}
	return &out
}
