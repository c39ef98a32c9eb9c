package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/chart"
	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/server"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

var (
	showWorkspace string
	showCountries []string
	showWaves     []string
	showQuestion  string
	showFrom      int
	showTo        int
	showYear      int
	showPNG       string
	showJSON      bool
)

var showCmd = &cobra.Command{
	Use:   "show <trends|youth|emissions|pricing|epi>",
	Short: "Print a dashboard view as a table, JSON or PNG chart",
	Long: `Print a dashboard view over a workspace.

  trends     mean response per wave for one question
  youth      youth percentage favorable for one question and wave
  emissions  CO2 per capita over a year window
  pricing    carbon pricing instrument per country
  epi        Environmental Performance Index ranking

Countries accept codes or names. For youth the first --wave is the wave shown.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: server.Views,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		name := args[0]
		d, err := loadDashboard(showWorkspace)
		if err != nil {
			return err
		}
		sel := showSelection()
		out := cmd.OutOrStdout()
		if showPNG != "" {
			p, err := server.RenderView(d, name, sel)
			if err != nil {
				return showError(out, err)
			}
			if err := chart.Save(p, showPNG); err != nil {
				return err
			}
			success(out, "Wrote chart %s", showPNG)
			return nil
		}
		v, err := computeView(d, name, sel)
		if err != nil {
			return showError(out, err)
		}
		if showJSON {
			b, err := utils.PrettyJSON(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		renderView(out, v)
		return nil
	},
}

func showSelection() dashboard.Selection {
	sel := dashboard.Selection{
		Countries: splitAll(showCountries),
		Waves:     splitAll(showWaves),
		Question:  strings.TrimSpace(showQuestion),
		From:      showFrom,
		To:        showTo,
		Year:      showYear,
	}
	if len(sel.Waves) > 0 {
		sel.Wave = sel.Waves[0]
	}
	return sel
}

func splitAll(vals []string) []string {
	var out []string
	for _, v := range vals {
		out = append(out, splitCSV(v)...)
	}
	return out
}

// showError turns an empty result into a warning; other errors propagate.
func showError(out io.Writer, err error) error {
	var nd *dashboard.NoDataError
	if errors.As(err, &nd) {
		warn(out, "%s", nd.Message)
		return nil
	}
	return err
}

func computeView(d *dashboard.Dashboard, name string, sel dashboard.Selection) (any, error) {
	switch name {
	case "trends":
		return d.Trends(sel)
	case "youth":
		return d.Youth(sel)
	case "emissions":
		return d.Emissions(sel)
	case "pricing":
		return d.PricingMap()
	case "epi":
		return d.EPI(sel)
	}
	return nil, fmt.Errorf("%w %q (use one of %s)", server.ErrUnknownView, name, strings.Join(server.Views, ", "))
}

func renderView(out io.Writer, view any) {
	switch v := view.(type) {
	case *dashboard.TrendView:
		fmt.Fprintln(out, v.Title)
		table := newTable(out, append([]string{"Country"}, v.Waves...))
		for _, ln := range v.Lines {
			vals := map[string]float64{}
			for _, p := range ln.Points {
				vals[p.X] = p.Value
			}
			row := []string{ln.Name}
			for _, w := range v.Waves {
				if x, ok := vals[w]; ok {
					row = append(row, strconv.FormatFloat(x, 'f', 2, 64))
				} else {
					row = append(row, "")
				}
			}
			table.Append(row)
		}
		table.Render()
		if v.Legend != "" {
			fmt.Fprintln(out, v.Legend)
		}
	case *dashboard.YouthView:
		fmt.Fprintln(out, v.Title)
		table := newTable(out, []string{"Country", v.YLabel})
		for _, b := range v.Bars {
			table.Append([]string{b.Name, b.Text})
		}
		table.Render()
	case *dashboard.EmissionsView:
		fmt.Fprintln(out, v.Title)
		years := map[int]struct{}{}
		vals := map[string]map[int]float64{}
		for _, s := range v.Series {
			vals[s.Code] = map[int]float64{}
			for _, p := range s.Points {
				years[p.Year] = struct{}{}
				vals[s.Code][p.Year] = p.Value
			}
		}
		var ys []int
		for y := range years {
			ys = append(ys, y)
		}
		sort.Ints(ys)
		header := []string{"Year"}
		for _, s := range v.Series {
			header = append(header, v.Names[s.Code])
		}
		table := newTable(out, header)
		for _, y := range ys {
			row := []string{strconv.Itoa(y)}
			for _, s := range v.Series {
				if x, ok := vals[s.Code][y]; ok {
					row = append(row, strconv.FormatFloat(x, 'f', 2, 64))
				} else {
					row = append(row, "")
				}
			}
			table.Append(row)
		}
		table.Render()
	case *dashboard.PricingView:
		fmt.Fprintln(out, v.Title)
		table := newTable(out, []string{"ISO3", "Country", "Instrument", "Carbon Tax", "ETS"})
		for _, e := range v.Entries {
			table.Append([]string{e.ISO3, e.Country, string(e.Instrument), yearCell(e.CarbonTax), yearCell(e.ETS)})
		}
		table.Render()
		for _, inst := range []pricing.Instrument{pricing.Both, pricing.CarbonTax, pricing.ETS, pricing.None} {
			fmt.Fprintf(out, "%s: %d\n", inst, v.Counts[inst])
		}
	case *dashboard.EPIView:
		fmt.Fprintln(out, v.Title)
		table := newTable(out, []string{"Region", "EPI", "Trend"})
		for _, r := range v.Ranks {
			table.Append([]string{r.Region, strconv.FormatFloat(r.Value, 'f', 1, 64), r.TrendDisplay})
		}
		table.Render()
	}
}

func yearCell(y int) string {
	if y == 0 {
		return "-"
	}
	return strconv.Itoa(y)
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showWorkspace, "workspace", "w", "", "workspace name")
	showCmd.Flags().StringSliceVarP(&showCountries, "country", "c", nil, "country codes or names (repeatable; default: config default_countries)")
	showCmd.Flags().StringSliceVar(&showWaves, "wave", nil, "survey waves (repeatable; default: all)")
	showCmd.Flags().StringVarP(&showQuestion, "question", "q", "", "question code (default: fourth question in the catalog)")
	showCmd.Flags().IntVar(&showFrom, "from", 0, "first emissions year (default: config emissions_from)")
	showCmd.Flags().IntVar(&showTo, "to", 0, "last emissions year (default: config emissions_to)")
	showCmd.Flags().IntVar(&showYear, "year", 0, "EPI edition (default: config epi_year)")
	showCmd.Flags().StringVar(&showPNG, "png", "", "write the view as a PNG chart instead of printing it")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the view as JSON")
}
