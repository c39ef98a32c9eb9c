package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

var (
	abOutputDir  string
	abDelimiter  string
	abSampleRows int
	abMaxRows    int
	abGroupBy    []string
	abDecimal    string
	abThousands  string
	abSheetName  string
	abSheetIndex int
	abQuiet      bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files into a summaries directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if abOutputDir == "" {
			return fmt.Errorf("--output-dir is required")
		}
		opt, err := analysisOptions(abSampleRows, abMaxRows, abDelimiter, abDecimal, abThousands, abGroupBy)
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(abOutputDir); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			md, err := analyzeFile(path, opt, abSheetName, abSheetIndex)
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			outFile := uniquePath(abOutputDir, strings.TrimSuffix(base, filepath.Ext(base)), ".summary.md")
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !abQuiet {
				success(out, "Wrote %s", filepath.Base(outFile))
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeping literal paths that exist; the result is
// sorted and free of duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniquePath returns dir/base+ext, or dir/base__N+ext for the first free N >= 2.
func uniquePath(dir, base, ext string) string {
	p := filepath.Join(dir, base+ext)
	for idx := 2; ; idx++ {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p
		}
		p = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutputDir, "output-dir", "o", "", "directory for <name>.summary.md files")
	analyzeBatchCmd.Flags().StringVar(&abDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	analyzeBatchCmd.Flags().StringVar(&abDecimal, "decimal", "", "decimal separator: '.'|'comma' (auto-detect if omitted)")
	analyzeBatchCmd.Flags().StringVar(&abThousands, "thousands", "", "thousands separator: ','|'.'|'space' (auto-detect if omitted)")
	analyzeBatchCmd.Flags().IntVar(&abSampleRows, "sample-rows", 5, "number of sample rows per summary (0 disables)")
	analyzeBatchCmd.Flags().IntVar(&abMaxRows, "max-rows", 100000, "maximum rows to process per file (0 = unlimited)")
	analyzeBatchCmd.Flags().StringSliceVar(&abGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeBatchCmd.Flags().StringVar(&abSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeBatchCmd.Flags().IntVar(&abSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	analyzeBatchCmd.Flags().BoolVarP(&abQuiet, "quiet", "q", false, "suppress progress output")
}
