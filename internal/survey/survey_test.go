package survey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
)

func table(t *testing.T, lines ...string) *analysis.Table {
	t.Helper()
	tbl, err := analysis.ReadCSVFrom(strings.NewReader(strings.Join(lines, "\n")+"\n"), "fixture.csv", analysis.DefaultOptions())
	require.NoError(t, err)
	return tbl
}

func questions(codes ...string) *lookup.Questions {
	var qs []lookup.Question
	for _, c := range codes {
		qs = append(qs, lookup.Question{Code: c, Label: "label " + c})
	}
	return lookup.NewQuestions(qs)
}

func aggregate(t *testing.T, opt Options, tbl *analysis.Table, qs *lookup.Questions) *Result {
	t.Helper()
	a, err := New(opt, zaptest.NewLogger(t))
	require.NoError(t, err)
	res, err := a.Aggregate(tbl, qs)
	require.NoError(t, err)
	return res
}

func mustValue(t *testing.T, w *Wide, country, wave, q string) float64 {
	t.Helper()
	v, ok := w.Value(Key{Country: country, Wave: wave}, q)
	require.Truef(t, ok, "no value for %s/%s %s", country, wave, q)
	return v
}

func TestReverseMapping(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001",
		"ARG,3,1,1",
		"BRA,3,1,4",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B001"))

	assert.Equal(t, []string{"B001"}, res.Reversed)
	assert.Equal(t, 4.0, mustValue(t, res.Means, "ARG", "3", "B001"))
	assert.Equal(t, 1.0, mustValue(t, res.Means, "BRA", "3", "B001"))
}

func TestFavorablePercentage(t *testing.T) {
	// raw values reverse to [1,2,3,3,4,4,4,1,2,3]: six of ten are 3 or 4
	lines := []string{"COUNTRY_ALPHA,S002VS,X003R2,B001"}
	for _, raw := range []string{"4", "3", "2", "2", "1", "1", "1", "4", "3", "2"} {
		lines = append(lines, "USA,5,1,"+raw)
	}
	res := aggregate(t, DefaultOptions(), table(t, lines...), questions("B001"))

	assert.Equal(t, 60.0, mustValue(t, res.Favorable, "USA", "5", "B001"))
	assert.InDelta(t, 2.7, mustValue(t, res.Means, "USA", "5", "B001"), 1e-9)
}

func TestStricterFavorableThreshold(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001,B008",
		"USA,5,1,1,1",
		"USA,5,1,2,2",
		"USA,5,1,4,4",
		"USA,5,1,3,3",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B001", "B008"))

	// transformed values are 4,3,1,2 for both columns
	assert.Equal(t, 50.0, mustValue(t, res.Favorable, "USA", "5", "B001"))
	assert.Equal(t, 25.0, mustValue(t, res.Favorable, "USA", "5", "B008"))
}

func TestFavorableOverrideIgnoresKeyCase(t *testing.T) {
	opt := DefaultOptions()
	opt.Favorable = map[string][]float64{"b001": {4}}
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001",
		"USA,5,1,1",
		"USA,5,1,4",
	)
	res := aggregate(t, opt, tbl, questions("B001"))
	assert.Equal(t, 50.0, mustValue(t, res.Favorable, "USA", "5", "B001"))
}

func TestSentinelRowExcluded(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B002",
		"USA,5,1,2",
		"USA,5,1,-1",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B002"))

	assert.Empty(t, res.Reversed)
	assert.Equal(t, 2.0, mustValue(t, res.Means, "USA", "5", "B002"))
}

func TestEmptyGroupsAbsent(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001",
		"USA,5,1,2",
		"DEU,5,1,-2",
		"DEU,5,1,-4",
		"FRA,6,2,3",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B001"))

	assert.Equal(t, []string{"FRA", "USA"}, res.Means.Countries())
	_, ok := res.Means.Value(Key{Country: "DEU", Wave: "5"}, "B001")
	assert.False(t, ok)

	// FRA has no youth respondents, so it has no favorable row at all
	assert.Equal(t, []string{"USA"}, res.Favorable.Countries())
}

func TestCohortFilter(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001",
		"USA,5,1,1",
		"USA,5,1,4",
		"USA,5,2,1",
		"USA,5,3,1",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B001"))
	// means use every respondent: (4+1+4+4)/4
	assert.Equal(t, 3.25, mustValue(t, res.Means, "USA", "5", "B001"))
	// favorable uses the two youth respondents only
	assert.Equal(t, 50.0, mustValue(t, res.Favorable, "USA", "5", "B001"))

	opt := DefaultOptions()
	opt.CohortFilter = false
	res = aggregate(t, opt, tbl, questions("B001"))
	assert.Equal(t, 75.0, mustValue(t, res.Favorable, "USA", "5", "B001"))
}

func TestCohortValueMatchesNumerically(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001",
		"USA,5,1.0,1",
		"USA,5,2,4",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B001"))
	assert.Equal(t, 100.0, mustValue(t, res.Favorable, "USA", "5", "B001"))
}

func TestOmitZeroFavorable(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001",
		"USA,5,1,4",
		"CAN,5,1,1",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B001"))
	assert.Equal(t, 0.0, mustValue(t, res.Favorable, "USA", "5", "B001"))

	opt := DefaultOptions()
	opt.OmitZeroFavorable = true
	res = aggregate(t, opt, tbl, questions("B001"))
	assert.Equal(t, []string{"CAN"}, res.Favorable.Countries())
}

func TestSkippedColumnsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(DefaultOptions(), zap.New(core))
	require.NoError(t, err)

	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001,B003,B009,E026,S020",
		"USA,5,1,2,abc,-1,abc,2000",
		"USA,5,1,3,n/a,-5,-1,2000",
		"USA,5,1,4,,-2,-2,2000",
	)
	res, err := a.Aggregate(tbl, questions("B001", "B003", "B009", "E026", "S020"))
	require.NoError(t, err)

	assert.Equal(t, []string{"B001"}, res.Questions)
	assert.Equal(t, []string{"B001"}, res.Means.Questions)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, "B003", res.Skipped[0].Question)
	assert.Equal(t, "no numeric values", res.Skipped[0].Reason)
	assert.Equal(t, "B009", res.Skipped[1].Question)
	assert.Equal(t, "all 3 values are sentinel codes", res.Skipped[1].Reason)
	assert.Equal(t, "E026", res.Skipped[2].Question)
	assert.Equal(t, "no valid values (2 sentinel, 1 non-numeric)", res.Skipped[2].Reason)

	warns := logs.FilterMessage("skipping question").All()
	require.Len(t, warns, 3)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	assert.Equal(t, "B003", warns[0].ContextMap()["question"])
	assert.Equal(t, 1, logs.FilterMessage("skipping metadata column").Len())
}

func TestDeclaredScaleMode(t *testing.T) {
	opt := DefaultOptions()
	opt.ScaleMode = ScaleDeclared
	opt.Scales = map[string]Scale{"B001": Reverse4}
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001,B002",
		"USA,5,1,1,1",
		"USA,5,1,4,4",
		"USA,5,1,4,4",
	)
	res := aggregate(t, opt, tbl, questions("B001", "B002"))

	assert.Equal(t, []string{"B001"}, res.Reversed)
	assert.Equal(t, 2.0, mustValue(t, res.Means, "USA", "5", "B001"))
	assert.Equal(t, 3.0, mustValue(t, res.Means, "USA", "5", "B002"))
}

func TestWaveNormalization(t *testing.T) {
	tbl := table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B002",
		"USA,5,1,1",
		"USA,5.0,1,3",
		"USA,10,1,2",
	)
	res := aggregate(t, DefaultOptions(), tbl, questions("B002"))
	assert.Equal(t, 2.0, mustValue(t, res.Means, "USA", "5", "B002"))
	assert.Equal(t, []string{"5", "10"}, res.Means.Waves())
}

func TestMissingKeyColumn(t *testing.T) {
	tbl := table(t,
		"COUNTRY,S002VS,B001",
		"USA,5,1",
	)
	a, err := New(DefaultOptions(), nil)
	require.NoError(t, err)
	_, err = a.Aggregate(tbl, questions("B001"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, analysis.ErrMissingColumn))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Options){
		"no country column": func(o *Options) { o.CountryColumn = " " },
		"no cohort column":  func(o *Options) { o.CohortColumn = "" },
		"bad mode":          func(o *Options) { o.ScaleMode = "guess" },
		"bad scale":         func(o *Options) { o.Scales = map[string]Scale{"B001": "log"} },
		"empty default":     func(o *Options) { o.DefaultFavorable = nil },
		"empty override":    func(o *Options) { o.Favorable = map[string][]float64{"B008": {}} },
		"case-only favorable keys": func(o *Options) {
			o.Favorable = map[string][]float64{"B008": {4}, "b008": {3, 4}}
		},
		"case-only scale keys": func(o *Options) {
			o.Scales = map[string]Scale{"B001": Reverse4, "b001": Identity}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opt := DefaultOptions()
			mutate(&opt)
			_, err := New(opt, nil)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
	assert.NoError(t, DefaultOptions().Validate())
}

func mixedTable(t *testing.T) *analysis.Table {
	return table(t,
		"COUNTRY_ALPHA,S002VS,X003R2,B001,B002,B008",
		"USA,5,1,1,2,4",
		"USA,5,2,2,3,-1",
		"USA,6,1,4,1,3",
		"CAN,5,1,3,-2,2",
		"CAN,7,2,-5,4,1",
		"DEU,3,1,2,2,2",
		"DEU,3,1,1,1,-4",
	)
}

func TestStatisticsStayInRange(t *testing.T) {
	res := aggregate(t, DefaultOptions(), mixedTable(t), questions("B001", "B002", "B008"))
	require.NotEmpty(t, res.Means.Rows)
	for _, r := range res.Means.Rows {
		for q, v := range r.Values {
			assert.GreaterOrEqualf(t, v, 1.0, "%s %s", r.Key, q)
			assert.LessOrEqualf(t, v, 4.0, "%s %s", r.Key, q)
		}
	}
	for _, r := range res.Favorable.Rows {
		for q, v := range r.Values {
			assert.GreaterOrEqualf(t, v, 0.0, "%s %s", r.Key, q)
			assert.LessOrEqualf(t, v, 100.0, "%s %s", r.Key, q)
		}
	}
}

func TestOutputIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	run := func(name string) []byte {
		res := aggregate(t, DefaultOptions(), mixedTable(t), questions("B001", "B002", "B008"))
		path := filepath.Join(dir, name)
		require.NoError(t, WriteWide(path, res.Means, DefaultKeyNames))
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		return b
	}
	first := run("a.csv")
	second := run("a.csv")
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(string(first), "Country,Wave,B001,B002,B008\n"))
}

func TestMeltPivotRoundTrip(t *testing.T) {
	res := aggregate(t, DefaultOptions(), mixedTable(t), questions("B001", "B002", "B008"))
	for _, w := range []*Wide{res.Means, res.Favorable} {
		back, err := Pivot(Melt(w))
		require.NoError(t, err)
		assert.Equal(t, w, back)
	}
}

func TestPivotRejectsDuplicates(t *testing.T) {
	k := Key{Country: "USA", Wave: "5"}
	_, err := Pivot(&Long{Cells: []Cell{{Key: k, Question: "B001", Value: 1}, {Key: k, Question: "B001", Value: 2}}})
	assert.Error(t, err)
}

func TestWriteReadWide(t *testing.T) {
	res := aggregate(t, DefaultOptions(), mixedTable(t), questions("B001", "B002", "B008"))
	path := filepath.Join(t.TempDir(), "means.csv")
	require.NoError(t, WriteWide(path, res.Means, DefaultKeyNames))

	back, err := ReadWide(path)
	require.NoError(t, err)
	assert.Equal(t, res.Means, back)
}

func TestExtremes(t *testing.T) {
	a, err := New(DefaultOptions(), nil)
	require.NoError(t, err)
	w, err := a.Extremes(mixedTable(t), questions("B001", "B002", "B008", "X003R2"))
	require.NoError(t, err)

	assert.Equal(t, []string{"B001_max", "B002_max", "B008_max"}, w.Questions)
	assert.Equal(t, 3.0, mustValue(t, w, "CAN", "5", "B001_max"))
	_, ok := w.Value(Key{Country: "CAN", Wave: "7"}, "B001_max")
	assert.False(t, ok)
	assert.Equal(t, 4.0, mustValue(t, w, "CAN", "7", "B002_max"))
	assert.Equal(t, 2.0, mustValue(t, w, "DEU", "3", "B001_max"))
}
