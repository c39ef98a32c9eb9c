// Package chart renders dashboard views as PNG images with gonum/plot.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

// Default image size.
var (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

var (
	green = color.RGBA{R: 46, G: 125, B: 50, A: 255}
	gray  = color.RGBA{R: 224, G: 224, B: 224, A: 255}
)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// Trends draws one line per country across the selected waves.
func Trends(v *dashboard.TrendView) (*plot.Plot, error) {
	p := newPlot(v.Title, v.XLabel, v.YLabel)
	pos := make(map[string]float64, len(v.Waves))
	for i, w := range v.Waves {
		pos[w] = float64(i)
	}
	for i, ln := range v.Lines {
		pts := make(plotter.XYs, len(ln.Points))
		for j, pt := range ln.Points {
			pts[j].X = pos[pt.X]
			pts[j].Y = pt.Value
		}
		line, marks, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("trend line %s: %w", ln.Code, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		marks.GlyphStyle.Color = plotutil.Color(i)
		marks.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(line, marks)
		p.Legend.Add(ln.Name, line, marks)
	}
	p.NominalX(v.Waves...)
	p.Legend.Top = true
	return p, nil
}

// Youth draws the percentage favorable per country with value labels.
func Youth(v *dashboard.YouthView) (*plot.Plot, error) {
	p := newPlot(v.Title, "Country", v.YLabel)
	values := make(plotter.Values, len(v.Bars))
	names := make([]string, len(v.Bars))
	labels := plotter.XYLabels{}
	for i, b := range v.Bars {
		values[i] = b.Value
		names[i] = b.Name
		labels.XYs = append(labels.XYs, plotter.XY{X: float64(i), Y: b.Value + 1.5})
		labels.Labels = append(labels.Labels, b.Text)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return nil, fmt.Errorf("youth bars: %w", err)
	}
	bars.Color = green
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("youth labels: %w", err)
	}
	p.Add(l)
	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = 105
	return p, nil
}

// Emissions draws CO2 per capita by year, one line per country.
func Emissions(v *dashboard.EmissionsView) (*plot.Plot, error) {
	p := newPlot(v.Title, "Year", v.YLabel)
	for i, s := range v.Series {
		pts := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			pts[j].X = float64(pt.Year)
			pts[j].Y = pt.Value
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("emissions line %s: %w", s.Code, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		name := v.Names[s.Code]
		if name == "" {
			name = s.Code
		}
		p.Legend.Add(name, line)
	}
	p.X.Min = float64(v.From)
	p.X.Max = float64(v.To)
	p.Legend.Top = true
	return p, nil
}

// Pricing draws the number of countries per instrument in the map colours.
func Pricing(v *dashboard.PricingView) (*plot.Plot, error) {
	p := newPlot(v.Title, "Instrument", "Countries")
	order := []pricing.Instrument{pricing.CarbonTax, pricing.ETS, pricing.Both, pricing.None}
	names := make([]string, len(order))
	for i, inst := range order {
		bars, err := plotter.NewBarChart(plotter.Values{float64(v.Counts[inst])}, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("pricing bars: %w", err)
		}
		bars.Color = hexColor(v.Colors[inst], gray)
		bars.LineStyle.Width = vg.Length(0)
		bars.XMin = float64(i)
		p.Add(bars)
		names[i] = string(inst)
	}
	p.NominalX(names...)
	p.Y.Min = 0
	return p, nil
}

// EPI draws a horizontal bar per country with score and trend labels.
func EPI(v *dashboard.EPIView) (*plot.Plot, error) {
	p := newPlot(v.Title, "EPI Score", "Country")
	values := make(plotter.Values, len(v.Ranks))
	names := make([]string, len(v.Ranks))
	labels := plotter.XYLabels{}
	for i, r := range v.Ranks {
		values[i] = r.Value
		names[i] = r.Region
		labels.XYs = append(labels.XYs, plotter.XY{X: 1, Y: float64(i)})
		labels.Labels = append(labels.Labels, fmt.Sprintf("EPI: %.1f Trend: %s", r.Value, r.TrendDisplay))
	}
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("epi bars: %w", err)
	}
	bars.Horizontal = true
	bars.Color = green
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("epi labels: %w", err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Color = color.White
	}
	p.Add(l)
	p.NominalY(names...)
	p.X.Min = 0
	p.X.Max = 100
	return p, nil
}

// Save writes p as an image; the format follows the file extension (PNG when absent).
func Save(p *plot.Plot, path string) error {
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure chart dir: %w", err)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// WritePNG streams p to w as PNG.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func hexColor(s string, fallback color.Color) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return fallback
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}
}
