package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/store"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

var (
	profLabels    string
	profOutput    string
	profSQLite    string
	profDelimiter string
)

var profileCmd = &cobra.Command{
	Use:   "profile <respondents.csv>",
	Short: "Record the largest positive raw response per question, country and wave",
	Long: `Record the largest positive raw response per question, country and wave in
columns named <code>_max. Useful for checking which questions use a four-point
scale before running precompute.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := surveyOptions()
		var err error
		if opt.Numeric.Delimiter, err = parseDelimiter(profDelimiter); err != nil {
			return err
		}
		agg, err := survey.New(opt, logger)
		if err != nil {
			return err
		}
		questions, err := loadQuestionSet(profLabels)
		if err != nil {
			return err
		}
		t, err := analysis.ReadCSV(args[0], opt.Numeric)
		if err != nil {
			return err
		}
		w, err := agg.Extremes(t, questions)
		if err != nil {
			return err
		}
		path := profOutput
		if path == "" {
			path = filepath.Join(outputDir(""), maxFileName)
		}
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return err
		}
		if err := survey.WriteWide(path, w, survey.DefaultKeyNames); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Wrote %s (%d rows, %d questions)", path, len(w.Rows), len(w.Questions))
		if profSQLite != "" {
			return exportWide(cmd.Context(), out, profSQLite, map[string]*survey.Wide{store.TableExtremes: w})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profLabels, "labels", "l", "", "question label file (XLSX, CSV or YAML; default: built-in catalog)")
	profileCmd.Flags().StringVarP(&profOutput, "output", "o", "", "output CSV (default: <output_dir>/"+maxFileName+")")
	profileCmd.Flags().StringVar(&profSQLite, "sqlite", "", "also export the table to this SQLite database")
	profileCmd.Flags().StringVar(&profDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
}
