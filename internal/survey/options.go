package survey

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// ScaleMode selects how a question's response scale is decided.
type ScaleMode string

const (
	// ScaleInferred reverses a question when its largest valid value in the run is 4.
	ScaleInferred ScaleMode = "inferred"
	// ScaleDeclared reverses only questions declared as Reverse4 in Options.Scales.
	ScaleDeclared ScaleMode = "declared"
)

// Scale is an explicit per-question recoding.
type Scale string

const (
	Identity Scale = "identity"
	Reverse4 Scale = "reverse4"
)

// Options parameterize one aggregation run.
type Options struct {
	CountryColumn string
	WaveColumn    string
	CohortColumn  string
	CohortValue   string
	// CohortFilter restricts the favorable table to respondents whose
	// CohortColumn equals CohortValue. When false every respondent counts.
	CohortFilter bool

	// Sentinels are response codes meaning no answer, don't know, or not applicable.
	Sentinels []float64
	// SkipPrefixes names question-code prefixes that mark metadata or weighting fields.
	SkipPrefixes []string

	ScaleMode ScaleMode
	Scales    map[string]Scale

	// DefaultFavorable is the set of transformed values counted as favorable.
	DefaultFavorable []float64
	// Favorable overrides DefaultFavorable per question code.
	Favorable map[string][]float64
	// OmitZeroFavorable drops groups with no favorable answers from the favorable table.
	OmitZeroFavorable bool

	// Numeric controls locale-aware parsing of response cells.
	Numeric analysis.Options
}

// DefaultOptions mirrors the survey's integrated time-series file layout.
func DefaultOptions() Options {
	return Options{
		CountryColumn:    "COUNTRY_ALPHA",
		WaveColumn:       "S002VS",
		CohortColumn:     "X003R2",
		CohortValue:      "1",
		CohortFilter:     true,
		Sentinels:        []float64{-1, -2, -4, -5},
		SkipPrefixes:     []string{"S", "V", "W", "X", "Y", "M"},
		ScaleMode:        ScaleInferred,
		DefaultFavorable: []float64{3, 4},
		Favorable:        map[string][]float64{"B008": {4}},
		Numeric:          analysis.DefaultOptions(),
	}
}

// ErrInvalidOptions wraps every Validate failure.
var ErrInvalidOptions = errors.New("invalid aggregation options")

// Validate checks that the options describe a runnable pipeline.
func (o Options) Validate() error {
	if strings.TrimSpace(o.CountryColumn) == "" || strings.TrimSpace(o.WaveColumn) == "" {
		return fmt.Errorf("%w: country and wave columns are required", ErrInvalidOptions)
	}
	if o.CohortFilter && strings.TrimSpace(o.CohortColumn) == "" {
		return fmt.Errorf("%w: cohort filter needs a cohort column", ErrInvalidOptions)
	}
	switch o.ScaleMode {
	case ScaleInferred, ScaleDeclared:
	default:
		return fmt.Errorf("%w: unknown scale mode %q (use inferred or declared)", ErrInvalidOptions, o.ScaleMode)
	}
	if a, b, ok := foldCollision(o.Scales); ok {
		return fmt.Errorf("%w: scales for %s and %s differ only by case", ErrInvalidOptions, a, b)
	}
	if a, b, ok := foldCollision(o.Favorable); ok {
		return fmt.Errorf("%w: favorable sets for %s and %s differ only by case", ErrInvalidOptions, a, b)
	}
	for code, s := range o.Scales {
		if s != Identity && s != Reverse4 {
			return fmt.Errorf("%w: question %s has unknown scale %q", ErrInvalidOptions, code, s)
		}
	}
	if len(o.DefaultFavorable) == 0 {
		return fmt.Errorf("%w: default favorable set is empty", ErrInvalidOptions)
	}
	for code, set := range o.Favorable {
		if len(set) == 0 {
			return fmt.Errorf("%w: favorable set for %s is empty", ErrInvalidOptions, code)
		}
	}
	return nil
}

// metadataPrefix returns the skip prefix matching code, if any.
func (o Options) metadataPrefix(code string) (string, bool) {
	for _, p := range o.SkipPrefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return p, true
		}
	}
	return "", false
}

func (o Options) isSentinel(v float64) bool {
	for _, s := range o.Sentinels {
		if v == s {
			return true
		}
	}
	return false
}

// FavorableSet returns the favorable values for code. Lookups ignore case;
// Validate rejects overrides whose codes differ only by case.
func (o Options) FavorableSet(code string) []float64 {
	for k, set := range o.Favorable {
		if strings.EqualFold(k, code) {
			return set
		}
	}
	return o.DefaultFavorable
}

func (o Options) declaredScale(code string) Scale {
	for k, s := range o.Scales {
		if strings.EqualFold(k, code) {
			return s
		}
	}
	return Identity
}

// foldCollision reports two keys of m that are equal ignoring case, in
// sorted order.
func foldCollision[V any](m map[string]V) (string, string, bool) {
	seen := make(map[string]string, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := strings.ToUpper(k)
		if prev, ok := seen[f]; ok {
			return prev, k, true
		}
		seen[f] = k
	}
	return "", "", false
}

func contains(set []float64, v float64) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
