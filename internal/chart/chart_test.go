package chart

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/climatelens-cli/internal/indicators"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestTrendsPNG(t *testing.T) {
	p, err := Trends(&dashboard.TrendView{
		Title: "trend",
		Waves: []string{"5", "6"},
		Lines: []dashboard.Line{
			{Code: "CAN", Name: "Canada", Points: []dashboard.Point{{X: "5", Value: 2.1}, {X: "6", Value: 2.4}}},
			{Code: "USA", Name: "United States", Points: []dashboard.Point{{X: "6", Value: 1.9}}},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestYouthAndEPISave(t *testing.T) {
	dir := t.TempDir()
	youth, err := Youth(&dashboard.YouthView{
		Title: "youth",
		Bars:  []dashboard.Bar{{Code: "USA", Name: "United States", Value: 35.5, Text: "35.5%"}, {Code: "CAN", Name: "Canada", Value: 20, Text: "20.0%"}},
	})
	require.NoError(t, err)
	require.NoError(t, Save(youth, filepath.Join(dir, "charts", "youth")))
	b, err := os.ReadFile(filepath.Join(dir, "charts", "youth.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic))

	epi, err := EPI(&dashboard.EPIView{
		Title: "epi",
		Year:  2024,
		Ranks: []indicators.Rank{{EPIRecord: indicators.EPIRecord{Region: "Canada", Year: 2024, Value: 61.1, Trend: 2.3}, TrendDisplay: "↑ 2.3"}},
	})
	require.NoError(t, err)
	require.NoError(t, Save(epi, filepath.Join(dir, "epi.png")))
}

func TestEmissionsAndPricing(t *testing.T) {
	em, err := Emissions(&dashboard.EmissionsView{
		Title: "co2", From: 1981, To: 2023,
		Series: []indicators.Series{{Code: "CAN", Points: []indicators.Point{{Year: 1990, Value: 16.5}, {Year: 2000, Value: 17}}}},
		Names:  map[string]string{},
	})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, em))

	pr, err := Pricing(&dashboard.PricingView{
		Title:  "pricing",
		Counts: map[pricing.Instrument]int{pricing.Both: 2, pricing.None: 10},
		Colors: pricing.Colors,
	})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, WritePNG(&buf, pr))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x66, G: 0xbb, B: 0x6a, A: 255}, hexColor("#66bb6a", gray))
	assert.Equal(t, gray, hexColor("nope", gray))
}
