// Package survey turns respondent-level survey rows into per-country, per-wave
// summary tables: the mean recoded response and the share of a cohort giving
// a favorable answer.
package survey

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
)

// SkippedQuestion records a question left out of a run and why.
type SkippedQuestion struct {
	Question string
	Reason   string
}

// Result holds the two wide tables produced by one run.
type Result struct {
	// Questions lists the codes that were aggregated, in catalog order.
	Questions []string
	// Reversed lists the codes recoded with v -> 5 - v.
	Reversed  []string
	Skipped   []SkippedQuestion
	Means     *Wide
	Favorable *Wide
}

// Aggregator runs the recode-and-aggregate pass over a respondent table.
type Aggregator struct {
	opt Options
	log *zap.Logger
}

// New validates opt and returns an Aggregator. A nil logger discards output.
func New(opt Options, log *zap.Logger) (*Aggregator, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{opt: opt, log: log}, nil
}

// response is one respondent's usable answer to a question.
type response struct {
	key    Key
	cohort bool
	value  float64
}

type groupAcc struct {
	sum       float64
	n         int
	cohortN   int
	favorable int
}

// Aggregate computes the mean and percentage-favorable tables for every
// question in questions that is also a column of t. Data-quality problems
// skip the affected question; only missing key columns fail the run.
func (a *Aggregator) Aggregate(t *analysis.Table, questions *lookup.Questions) (*Result, error) {
	ci, err := t.MustIndex(a.opt.CountryColumn)
	if err != nil {
		return nil, err
	}
	wi, err := t.MustIndex(a.opt.WaveColumn)
	if err != nil {
		return nil, err
	}
	hi := -1
	if a.opt.CohortFilter {
		if hi, err = t.MustIndex(a.opt.CohortColumn); err != nil {
			return nil, err
		}
	}

	keys := make([]Key, len(t.Rows))
	cohort := make([]bool, len(t.Rows))
	for r, row := range t.Rows {
		keys[r] = rowKey(row, ci, wi)
		cohort[r] = hi < 0 || a.inCohort(row[hi])
	}

	res := &Result{}
	means := &Long{}
	fav := &Long{}
	for _, q := range questions.Present(t.Header).Codes() {
		if p, ok := a.opt.metadataPrefix(q); ok {
			a.log.Info("skipping metadata column", zap.String("question", q), zap.String("prefix", p))
			continue
		}
		col := t.Index(q)
		resp, reason := a.collect(t, col, keys, cohort)
		if reason != "" {
			a.log.Warn("skipping question", zap.String("question", q), zap.String("reason", reason))
			res.Skipped = append(res.Skipped, SkippedQuestion{Question: q, Reason: reason})
			continue
		}
		if a.reverse(q, resp) {
			for i := range resp {
				resp[i].value = 5 - resp[i].value
			}
			res.Reversed = append(res.Reversed, q)
		}
		res.Questions = append(res.Questions, q)

		set := a.opt.FavorableSet(q)
		groups := map[Key]*groupAcc{}
		var order []Key
		for _, rv := range resp {
			g := groups[rv.key]
			if g == nil {
				g = &groupAcc{}
				groups[rv.key] = g
				order = append(order, rv.key)
			}
			g.sum += rv.value
			g.n++
			if rv.cohort {
				g.cohortN++
				if contains(set, rv.value) {
					g.favorable++
				}
			}
		}
		sortKeys(order)
		meanSeen, favSeen := false, false
		for _, k := range order {
			g := groups[k]
			means.Cells = append(means.Cells, Cell{Key: k, Question: q, Value: g.sum / float64(g.n)})
			meanSeen = true
			if g.cohortN == 0 {
				continue
			}
			if g.favorable == 0 && a.opt.OmitZeroFavorable {
				continue
			}
			fav.Cells = append(fav.Cells, Cell{Key: k, Question: q, Value: float64(g.favorable) * 100 / float64(g.cohortN)})
			favSeen = true
		}
		if meanSeen {
			means.Questions = append(means.Questions, q)
		}
		if favSeen {
			fav.Questions = append(fav.Questions, q)
		}
		a.log.Debug("aggregated question",
			zap.String("question", q),
			zap.Int("responses", len(resp)),
			zap.Int("groups", len(order)))
	}

	if res.Means, err = Pivot(means); err != nil {
		return nil, err
	}
	if res.Favorable, err = Pivot(fav); err != nil {
		return nil, err
	}
	return res, nil
}

// collect returns the valid responses in column col. The reason is non-empty
// when the column has nothing left to aggregate.
func (a *Aggregator) collect(t *analysis.Table, col int, keys []Key, cohort []bool) ([]response, string) {
	var out []response
	sentinel, invalid := 0, 0
	for r, row := range t.Rows {
		if keys[r].Country == "" || keys[r].Wave == "" {
			continue
		}
		v, ok := analysis.ParseNumeric(row[col], a.opt.Numeric)
		if !ok {
			if strings.TrimSpace(row[col]) != "" {
				invalid++
			}
			continue
		}
		if a.opt.isSentinel(v) {
			sentinel++
			continue
		}
		out = append(out, response{key: keys[r], cohort: cohort[r], value: v})
	}
	switch {
	case len(out) > 0:
		return out, ""
	case sentinel == 0:
		return nil, "no numeric values"
	case invalid == 0:
		return nil, fmt.Sprintf("all %d values are sentinel codes", sentinel)
	}
	return nil, fmt.Sprintf("no valid values (%d sentinel, %d non-numeric)", sentinel, invalid)
}

// reverse decides whether question q is a reverse-coded 4-point scale.
func (a *Aggregator) reverse(q string, resp []response) bool {
	if a.opt.ScaleMode == ScaleDeclared {
		return a.opt.declaredScale(q) == Reverse4
	}
	top := resp[0].value
	for _, rv := range resp[1:] {
		if rv.value > top {
			top = rv.value
		}
	}
	return top == 4
}

func (a *Aggregator) inCohort(cell string) bool {
	v := strings.TrimSpace(cell)
	if v == a.opt.CohortValue {
		return true
	}
	x, ok1 := analysis.ParseNumeric(v, a.opt.Numeric)
	y, ok2 := analysis.ParseNumeric(a.opt.CohortValue, a.opt.Numeric)
	return ok1 && ok2 && x == y
}

func rowKey(row []string, ci, wi int) Key {
	return Key{Country: strings.TrimSpace(row[ci]), Wave: normalizeWave(row[wi])}
}

// normalizeWave renders integral numeric waves without a decimal part so
// "5" and "5.0" land in the same group.
func normalizeWave(cell string) string {
	v := strings.TrimSpace(cell)
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return v
}
