package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/store"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

const taxFileName = "tax_summary.csv"

var (
	taxOutput    string
	taxSQLite    string
	taxWorkspace string
)

var taxSummaryCmd = &cobra.Command{
	Use:   "tax-summary <carbon_pricing.csv>",
	Short: "Reduce a per-year carbon pricing export to first adoption years",
	Long: `Reduce a per-year carbon pricing export (one column per year, one row per
country and indicator) to the first year each country had a carbon tax and an
emissions trading system. 0 means never.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := analysis.ReadCSV(args[0], analysis.DefaultOptions())
		if err != nil {
			return err
		}
		summary, err := pricing.Summarize(t, logger)
		if err != nil {
			return err
		}
		path := taxOutput
		if path == "" {
			path = filepath.Join(outputDir(""), taxFileName)
		}
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return err
		}
		if err := pricing.WriteSummary(path, summary); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Wrote %s (%d countries)", path, len(summary))
		if taxSQLite != "" {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := store.Open(taxSQLite)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.ExportPricing(ctx, store.TableTax, summary); err != nil {
				return err
			}
			success(out, "Exported %s to %s", store.TableTax, taxSQLite)
		}
		if taxWorkspace != "" {
			return register(cmd, taxWorkspace, path, workspace.KindTax, "carbon pricing summary")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taxSummaryCmd)
	taxSummaryCmd.Flags().StringVarP(&taxOutput, "output", "o", "", "output CSV (default: <output_dir>/"+taxFileName+")")
	taxSummaryCmd.Flags().StringVar(&taxSQLite, "sqlite", "", "also export the summary to this SQLite database")
	taxSummaryCmd.Flags().StringVarP(&taxWorkspace, "workspace", "w", "", "register the summary as the tax dataset in this workspace")
}
