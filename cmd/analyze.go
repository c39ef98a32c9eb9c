package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

var (
	anaOutputPath string
	anaDelimiter  string
	anaSampleRows int
	anaMaxRows    int
	anaGroupBy    []string
	anaSheetName  string
	anaSheetIndex int
	anaDecimal    string
	anaThousands  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX export and produce a concise summary",
	Long: `Profile a CSV/TSV/XLSX export: column kinds, missing shares, negative
response codes and 4-point scales, optional group-by means and sample rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := analysisOptions(anaSampleRows, anaMaxRows, anaDelimiter, anaDecimal, anaThousands, anaGroupBy)
		if err != nil {
			return err
		}
		md, err := analyzeFile(args[0], opt, anaSheetName, anaSheetIndex)
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			success(cmd.OutOrStdout(), "Wrote analysis to %s", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func analysisOptions(sampleRows, maxRows int, delim, decimal, thousands string, groupBy []string) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if sampleRows >= 0 {
		opt.SampleRows = sampleRows
	}
	if maxRows > 0 {
		opt.MaxRows = maxRows
	}
	var err error
	if opt.Delimiter, err = parseDelimiter(delim); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = parseDecimal(decimal); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = parseThousands(thousands); err != nil {
		return opt, err
	}
	opt.GroupBy = groupBy
	return opt, nil
}

func analyzeFile(path string, opt analysis.Options, sheetName string, sheetIndex int) (string, error) {
	t, err := readTable(path, opt, sheetName, sheetIndex)
	if err != nil {
		return "", err
	}
	return analysis.Analyze(t, opt).Markdown(), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
