package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
	"github.com/KaramelBytes/climatelens-cli/internal/store"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

const (
	meansFileName = "precomputed_env_data.csv"
	youthFileName = "precomputed_age_data.csv"
	maxFileName   = "precomputed_max.csv"
)

var (
	preLabels         string
	preOutputDir      string
	preSQLite         string
	preXLSX           string
	preAllRespondents bool
	preOmitZero       bool
	preScaleMode      string
	preDelimiter      string
	preWorkspace      string
)

var precomputeCmd = &cobra.Command{
	Use:   "precompute <respondents.csv>",
	Short: "Aggregate respondent rows into the means and youth favorable tables",
	Long: `Aggregate respondent-level survey rows into two wide tables keyed by
country and wave: the mean recoded response per question and the percentage of
the youth cohort answering favorably.

Four-point questions are reverse coded (v -> 5 - v) so that higher means more
agreement. Negative response codes are excluded. Columns with nothing left to
aggregate are skipped with a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := surveyOptions()
		if preAllRespondents {
			opt.CohortFilter = false
		}
		if cmd.Flags().Changed("omit-zero") {
			opt.OmitZeroFavorable = preOmitZero
		}
		if preScaleMode != "" {
			opt.ScaleMode = survey.ScaleMode(preScaleMode)
		}
		var err error
		if opt.Numeric.Delimiter, err = parseDelimiter(preDelimiter); err != nil {
			return err
		}
		agg, err := survey.New(opt, logger)
		if err != nil {
			return err
		}
		questions, err := loadQuestionSet(preLabels)
		if err != nil {
			return err
		}
		t, err := analysis.ReadCSV(args[0], opt.Numeric)
		if err != nil {
			return err
		}
		logger.Debug("read respondents", zap.String("path", args[0]), zap.Int("rows", len(t.Rows)), zap.Int("columns", len(t.Header)))

		res, err := agg.Aggregate(t, questions)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Aggregated %d questions (%d reverse coded) over %d rows", len(res.Questions), len(res.Reversed), len(t.Rows))
		for _, s := range res.Skipped {
			warn(out, "skipped %s: %s", s.Question, s.Reason)
		}
		if len(res.Questions) == 0 {
			warn(out, "no question columns from the label catalog were found in %s", filepath.Base(args[0]))
		}

		dir := outputDir(preOutputDir)
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		meansPath := filepath.Join(dir, meansFileName)
		youthPath := filepath.Join(dir, youthFileName)
		if err := survey.WriteWide(meansPath, res.Means, survey.DefaultKeyNames); err != nil {
			return err
		}
		success(out, "Wrote %s (%d rows)", meansPath, len(res.Means.Rows))
		if err := survey.WriteWide(youthPath, res.Favorable, survey.DefaultKeyNames); err != nil {
			return err
		}
		success(out, "Wrote %s (%d rows)", youthPath, len(res.Favorable.Rows))

		if preXLSX != "" {
			if err := writeWorkbook(preXLSX, res); err != nil {
				return err
			}
			success(out, "Wrote %s", preXLSX)
		}
		if preSQLite != "" {
			if err := exportWide(cmd.Context(), out, preSQLite, map[string]*survey.Wide{
				store.TableMeans: res.Means,
				store.TableYouth: res.Favorable,
			}); err != nil {
				return err
			}
		}
		if preWorkspace != "" {
			if err := register(cmd, preWorkspace, meansPath, workspace.KindMeans, "precomputed means"); err != nil {
				return err
			}
			if err := register(cmd, preWorkspace, youthPath, workspace.KindYouth, "precomputed youth favorable"); err != nil {
				return err
			}
		}
		return nil
	},
}

// loadQuestionSet reads a label file, or falls back to the embedded catalog.
func loadQuestionSet(path string) (*lookup.Questions, error) {
	if path == "" {
		return lookup.Default().Questions, nil
	}
	q, err := lookup.LoadQuestions(path)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	return q, nil
}

func outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg != nil && cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "precalculated_data"
}

func writeWorkbook(path string, res *survey.Result) error {
	mh, mr := survey.Records(res.Means, survey.DefaultKeyNames)
	yh, yr := survey.Records(res.Favorable, survey.DefaultKeyNames)
	return analysis.WriteXLSX(path, []analysis.Sheet{
		{Name: "means", Header: mh, Rows: mr},
		{Name: "youth", Header: yh, Rows: yr},
	})
}

// exportWide writes each table into the SQLite database at path, in name order.
func exportWide(ctx context.Context, out io.Writer, path string, tables map[string]*survey.Wide) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, name := range sortedKeys(tables) {
		if err := st.ExportWide(ctx, name, tables[name]); err != nil {
			return err
		}
		success(out, "Exported %s to %s", name, path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(precomputeCmd)
	precomputeCmd.Flags().StringVarP(&preLabels, "labels", "l", "", "question label file (XLSX, CSV or YAML; default: built-in catalog)")
	precomputeCmd.Flags().StringVarP(&preOutputDir, "output-dir", "o", "", "directory for the precomputed CSVs (default: config output_dir)")
	precomputeCmd.Flags().StringVar(&preSQLite, "sqlite", "", "also export both tables to this SQLite database")
	precomputeCmd.Flags().StringVar(&preXLSX, "xlsx", "", "also write both tables to this XLSX workbook")
	precomputeCmd.Flags().BoolVar(&preAllRespondents, "all-respondents", false, "compute percentage favorable over all respondents instead of the youth cohort")
	precomputeCmd.Flags().BoolVar(&preOmitZero, "omit-zero", false, "leave out groups with no favorable answers")
	precomputeCmd.Flags().StringVar(&preScaleMode, "scale-mode", "", "inferred | declared (default: config scale_mode)")
	precomputeCmd.Flags().StringVar(&preDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	precomputeCmd.Flags().StringVarP(&preWorkspace, "workspace", "w", "", "register the outputs as means and youth datasets in this workspace")
}
