package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

func success(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ Warning: "+format+"\n", args...)
}

func defaultWorkspacesDir() (string, error) {
	dir := filepath.Join("~", ".climatelens", "workspaces")
	if cfg != nil && cfg.WorkspacesDir != "" {
		dir = cfg.WorkspacesDir
	}
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveWorkspaceDir(name string) (string, error) {
	if name == "" {
		return "", errors.New("workspace name is required")
	}
	root, err := defaultWorkspacesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func loadWorkspace(name string) (*workspace.Workspace, error) {
	dir, err := resolveWorkspaceDir(name)
	if err != nil {
		return nil, err
	}
	return workspace.Load(dir)
}

func loadDashboard(name string) (*dashboard.Dashboard, error) {
	ws, err := loadWorkspace(name)
	if err != nil {
		return nil, err
	}
	var defaults dashboard.Defaults
	if cfg != nil {
		defaults = dashboard.Defaults{
			Countries: cfg.DefaultCountries,
			From:      cfg.EmissionsFrom,
			To:        cfg.EmissionsTo,
			Year:      cfg.EPIYear,
		}
	}
	return ws.Dashboard(defaults, logger)
}

// surveyOptions maps the loaded configuration onto aggregation options.
func surveyOptions() survey.Options {
	opt := survey.DefaultOptions()
	if cfg == nil {
		return opt
	}
	opt.CountryColumn = cfg.CountryColumn
	opt.WaveColumn = cfg.WaveColumn
	opt.CohortColumn = cfg.CohortColumn
	opt.CohortValue = cfg.CohortValue
	opt.CohortFilter = cfg.CohortFilter
	opt.Sentinels = cfg.Sentinels
	opt.SkipPrefixes = cfg.SkipPrefixes
	opt.ScaleMode = survey.ScaleMode(cfg.ScaleMode)
	opt.OmitZeroFavorable = cfg.OmitZeroFavorable
	if len(cfg.DefaultFavorable) > 0 {
		opt.DefaultFavorable = cfg.DefaultFavorable
	}
	if len(cfg.Favorable) > 0 {
		opt.Favorable = cfg.Favorable
	}
	if len(cfg.Scales) > 0 {
		opt.Scales = make(map[string]survey.Scale, len(cfg.Scales))
		for code, s := range cfg.Scales {
			opt.Scales[code] = survey.Scale(s)
		}
	}
	return opt
}

// readTable loads a CSV/TSV or, by extension, an XLSX sheet.
func readTable(path string, opt analysis.Options, sheetName string, sheetIndex int) (*analysis.Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return analysis.ReadXLSX(path, sheetName, sheetIndex)
	}
	return analysis.ReadCSV(path, opt)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
}
