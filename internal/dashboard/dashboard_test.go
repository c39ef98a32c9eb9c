package dashboard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/climatelens-cli/internal/indicators"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
)

func wide(t *testing.T, questions []string, cells ...survey.Cell) *survey.Wide {
	t.Helper()
	w, err := survey.Pivot(&survey.Long{Questions: questions, Cells: cells})
	require.NoError(t, err)
	return w
}

func cell(country, wave, q string, v float64) survey.Cell {
	return survey.Cell{Key: survey.Key{Country: country, Wave: wave}, Question: q, Value: v}
}

func fixture(t *testing.T) *Dashboard {
	t.Helper()
	qs := []string{"B001", "B002", "B003", "B008"}
	means := wide(t, qs,
		cell("CAN", "5", "B008", 2.1),
		cell("CAN", "6", "B008", 2.4),
		cell("USA", "5", "B008", 1.9),
		cell("XKX", "7", "B008", 2.0),
		cell("USA", "5", "B001", 2.5),
	)
	youth := wide(t, qs,
		cell("CAN", "4", "B008", 20),
		cell("USA", "4", "B008", 35.5),
		cell("DEU", "4", "B008", 30),
		cell("CAN", "5", "B008", 10),
		cell("CAN", "6", "B008", 10),
		cell("CAN", "7", "B008", 10),
	)

	dir := t.TempDir()
	co2Path := filepath.Join(dir, "co2.csv")
	require.NoError(t, os.WriteFile(co2Path, []byte("iso_code,year,co2_per_capita\nCAN,1990,16.5\nCAN,1970,15.0\nUSA,2000,20.1\n"), 0o644))
	co2, err := indicators.LoadCO2(co2Path)
	require.NoError(t, err)
	epiPath := filepath.Join(dir, "epi.csv")
	require.NoError(t, os.WriteFile(epiPath, []byte("region;date;value;trend\nCanada;2024;61.1;2.3\nGermany;2024;74.5;-1.2\nUnited States;2024;57.2;0\n"), 0o644))
	epi, err := indicators.LoadEPI(epiPath)
	require.NoError(t, err)

	return New(lookup.Default(), Data{
		Means: means,
		Youth: youth,
		CO2:   co2,
		Tax:   []pricing.Adoption{{ISO3: "CAN", Country: "Canada", CarbonTax: 2019, ETS: 2018}, {ISO3: "ZZZ", Country: "Nowhere", ETS: 2001}},
		EPI:   epi,
	}, Defaults{})
}

func TestResolveDefaults(t *testing.T) {
	d := fixture(t)
	sel, err := d.Resolve(Selection{})
	require.NoError(t, err)

	assert.Equal(t, DefaultCountries, sel.Countries)
	assert.Equal(t, []string{"5", "6", "7"}, sel.Waves)
	assert.Equal(t, "B008", sel.Question)
	assert.Equal(t, "7", sel.Wave)
	assert.Equal(t, indicators.DefaultFrom, sel.From)
	assert.Equal(t, indicators.DefaultTo, sel.To)
	assert.Equal(t, indicators.DefaultEPIYear, sel.Year)
}

func TestResolveTranslatesNames(t *testing.T) {
	d := fixture(t)
	sel, err := d.Resolve(Selection{Countries: []string{"Canada", "USA", "Canada", "Atlantis"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CAN", "USA", "Atlantis"}, sel.Countries)
}

func TestResolveRejectsUnknownQuestion(t *testing.T) {
	_, err := fixture(t).Resolve(Selection{Question: "Z999"})
	assert.ErrorIs(t, err, ErrBadSelection)

	_, err = fixture(t).Resolve(Selection{From: 2020, To: 2000})
	assert.ErrorIs(t, err, ErrBadSelection)
}

func TestTrends(t *testing.T) {
	d := fixture(t)
	v, err := d.Trends(Selection{Countries: []string{"United States", "Canada", "XKX"}})
	require.NoError(t, err)

	assert.Equal(t, "B008", v.Question)
	assert.Equal(t, "Protecting environment vs. economic growth", v.Label)
	require.Len(t, v.Lines, 3)
	assert.Equal(t, "USA", v.Lines[0].Code)
	assert.Equal(t, "United States", v.Lines[0].Name)
	assert.Equal(t, []Point{{X: "5", Value: 2.1}, {X: "6", Value: 2.4}}, v.Lines[1].Points)
	// unknown codes are shown as is
	assert.Equal(t, "XKX", v.Lines[2].Name)
	assert.Equal(t, []string{"5", "6", "7"}, v.Waves)
}

func TestTrendsTitle(t *testing.T) {
	v, err := fixture(t).Trends(Selection{Countries: []string{"CAN"}})
	require.NoError(t, err)
	assert.Equal(t, "Responses to 'Protecting environment vs. economic growth'", v.Title)
	assert.Equal(t, "Mean response", v.YLabel)
}

func TestTrendsNoData(t *testing.T) {
	d := fixture(t)
	_, err := d.Trends(Selection{Countries: []string{"DEU"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t,
		"No data available for the selected question 'Protecting environment vs. economic growth' with the chosen countries and waves.",
		err.Error())

	_, err = d.Trends(Selection{Countries: []string{"CAN"}, Waves: []string{"3"}})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYouthSortedDescending(t *testing.T) {
	d := fixture(t)
	v, err := d.Youth(Selection{Countries: []string{"CAN", "USA", "DEU"}, Wave: "4"})
	require.NoError(t, err)
	require.Len(t, v.Bars, 3)
	assert.Equal(t, []string{"USA", "DEU", "CAN"}, []string{v.Bars[0].Code, v.Bars[1].Code, v.Bars[2].Code})
	assert.Equal(t, "35.5%", v.Bars[0].Text)
	assert.Equal(t, "Germany", v.Bars[1].Name)

	_, err = d.Youth(Selection{Countries: []string{"CAN"}, Question: "B001", Wave: "4"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEmissions(t *testing.T) {
	d := fixture(t)
	v, err := d.Emissions(Selection{Countries: []string{"CAN", "USA"}})
	require.NoError(t, err)
	require.Len(t, v.Series, 2)
	assert.Equal(t, []indicators.Point{{Year: 1990, Value: 16.5}}, v.Series[0].Points)
	assert.Equal(t, "Canada", v.Names["CAN"])

	_, err = d.Emissions(Selection{Countries: []string{"CAN"}, From: 2001, To: 2010})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPricingMap(t *testing.T) {
	d := fixture(t)
	v, err := d.PricingMap()
	require.NoError(t, err)

	byCode := map[string]pricing.MapEntry{}
	for _, e := range v.Entries {
		byCode[e.ISO3] = e
	}
	assert.Equal(t, pricing.Both, byCode["CAN"].Instrument)
	assert.Equal(t, pricing.ETS, byCode["ZZZ"].Instrument)
	assert.Equal(t, pricing.None, byCode["USA"].Instrument)
	assert.Equal(t, "Unknown", byCode["USA"].Country)
	assert.Equal(t, len(v.Entries)-2, v.Counts[pricing.None])
}

func TestEPI(t *testing.T) {
	d := fixture(t)
	v, err := d.EPI(Selection{})
	require.NoError(t, err)
	require.Len(t, v.Ranks, 3)
	assert.Equal(t, "United States", v.Ranks[0].Region)
	assert.Equal(t, "Germany", v.Ranks[2].Region)

	_, err = d.EPI(Selection{Year: 2020})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNotLoaded(t *testing.T) {
	d := New(nil, Data{}, Defaults{})
	_, err := d.Trends(Selection{})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = d.PricingMap()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Empty(t, d.Questions())
}

func TestYouthWithoutMeans(t *testing.T) {
	youth := wide(t, []string{"B001", "B002", "B003", "B008"},
		cell("CAN", "4", "B008", 20),
		cell("USA", "4", "B008", 35.5),
	)
	d := New(nil, Data{Youth: youth}, Defaults{Countries: []string{"CAN", "USA"}})

	v, err := d.Youth(Selection{})
	require.NoError(t, err)
	assert.Equal(t, "B008", v.Question)
	assert.Equal(t, "4", v.Wave)
	require.Len(t, v.Bars, 2)
	assert.Equal(t, "USA", v.Bars[0].Code)

	_, err = d.Youth(Selection{Question: "ZZZ"})
	assert.ErrorIs(t, err, ErrBadSelection)

	require.Len(t, d.Questions(), 4)
	assert.Equal(t, "B001", d.Questions()[0].Code)
}

func TestYouthRejectsQuestionMissingFromYouthTable(t *testing.T) {
	d := New(nil, Data{
		Means: wide(t, []string{"B001", "B008"}, cell("CAN", "5", "B008", 2.1), cell("CAN", "5", "B001", 2.5)),
		Youth: wide(t, []string{"B008"}, cell("CAN", "5", "B008", 10)),
	}, Defaults{})
	_, err := d.Youth(Selection{Question: "B001"})
	assert.ErrorIs(t, err, ErrBadSelection)

	v, err := d.Youth(Selection{Countries: []string{"CAN"}})
	require.NoError(t, err)
	assert.Equal(t, "B008", v.Question)
}

func TestResolveUsesConfiguredDefaults(t *testing.T) {
	d := New(nil, Data{}, Defaults{Countries: []string{"Canada"}, From: 1990, To: 2000, Year: 2022})
	sel, err := d.Resolve(Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CAN"}, sel.Countries)
	assert.Equal(t, 1990, sel.From)
	assert.Equal(t, 2000, sel.To)
	assert.Equal(t, 2022, sel.Year)

	sel, err = d.Resolve(Selection{From: 1981, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 1981, sel.From)
	assert.Equal(t, 2000, sel.To)
	assert.Equal(t, 2024, sel.Year)
}
