package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/climatelens-cli/internal/config"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ClimateLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "country_column: %s\n", cfg.CountryColumn)
		fmt.Fprintf(out, "wave_column: %s\n", cfg.WaveColumn)
		fmt.Fprintf(out, "cohort_column: %s\n", cfg.CohortColumn)
		fmt.Fprintf(out, "cohort_value: %s\n", cfg.CohortValue)
		fmt.Fprintf(out, "cohort_filter: %t\n", cfg.CohortFilter)
		fmt.Fprintf(out, "sentinels: %s\n", joinFloats(cfg.Sentinels))
		fmt.Fprintf(out, "skip_prefixes: %s\n", strings.Join(cfg.SkipPrefixes, ","))
		fmt.Fprintf(out, "scale_mode: %s\n", cfg.ScaleMode)
		for _, code := range sortedKeys(cfg.Scales) {
			fmt.Fprintf(out, "scales.%s: %s\n", strings.ToUpper(code), cfg.Scales[code])
		}
		fmt.Fprintf(out, "default_favorable: %s\n", joinFloats(cfg.DefaultFavorable))
		for _, code := range sortedKeys(cfg.Favorable) {
			fmt.Fprintf(out, "favorable.%s: %s\n", strings.ToUpper(code), joinFloats(cfg.Favorable[code]))
		}
		fmt.Fprintf(out, "omit_zero_favorable: %t\n", cfg.OmitZeroFavorable)
		fmt.Fprintf(out, "default_countries: %s\n", strings.Join(cfg.DefaultCountries, ","))
		fmt.Fprintf(out, "emissions_from: %d\n", cfg.EmissionsFrom)
		fmt.Fprintf(out, "emissions_to: %d\n", cfg.EmissionsTo)
		fmt.Fprintf(out, "epi_year: %d\n", cfg.EPIYear)
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "workspaces_dir: %s\n", cfg.WorkspacesDir)
		fmt.Fprintf(out, "server_addr: %s\n", cfg.ServerAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Lists are comma-separated.
Per-question overrides use favorable.<CODE> and scales.<CODE>.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := applySetting(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch {
	case strings.HasPrefix(key, "favorable."):
		code := strings.TrimPrefix(key, "favorable.")
		set, err := parseFloats(val)
		if err != nil || len(set) == 0 {
			return fmt.Errorf("invalid favorable set for %s: %v", code, val)
		}
		if c.Favorable == nil {
			c.Favorable = map[string][]float64{}
		}
		dropFold(c.Favorable, code)
		c.Favorable[code] = set
		return nil
	case strings.HasPrefix(key, "scales."):
		code := strings.TrimPrefix(key, "scales.")
		switch survey.Scale(val) {
		case survey.Identity, survey.Reverse4:
		default:
			return fmt.Errorf("invalid scale for %s: %s (use identity or reverse4)", code, val)
		}
		if c.Scales == nil {
			c.Scales = map[string]string{}
		}
		dropFold(c.Scales, code)
		c.Scales[code] = val
		return nil
	}
	switch key {
	case "country_column":
		c.CountryColumn = val
	case "wave_column":
		c.WaveColumn = val
	case "cohort_column":
		c.CohortColumn = val
	case "cohort_value":
		c.CohortValue = val
	case "cohort_filter", "omit_zero_favorable":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		if key == "cohort_filter" {
			c.CohortFilter = b
		} else {
			c.OmitZeroFavorable = b
		}
	case "sentinels":
		f, err := parseFloats(val)
		if err != nil {
			return fmt.Errorf("invalid list for sentinels: %w", err)
		}
		c.Sentinels = f
	case "default_favorable":
		f, err := parseFloats(val)
		if err != nil || len(f) == 0 {
			return fmt.Errorf("invalid list for default_favorable: %v", val)
		}
		c.DefaultFavorable = f
	case "skip_prefixes":
		c.SkipPrefixes = splitCSV(val)
	case "scale_mode":
		switch survey.ScaleMode(val) {
		case survey.ScaleInferred, survey.ScaleDeclared:
			c.ScaleMode = val
		default:
			return fmt.Errorf("invalid scale_mode: %s (use inferred or declared)", val)
		}
	case "default_countries":
		c.DefaultCountries = splitCSV(strings.ToUpper(val))
	case "emissions_from", "emissions_to", "epi_year":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "emissions_from":
			c.EmissionsFrom = i
		case "emissions_to":
			c.EmissionsTo = i
		default:
			c.EPIYear = i
		}
	case "output_dir":
		c.OutputDir = val
	case "workspaces_dir":
		c.WorkspacesDir = val
	case "server_addr":
		c.ServerAddr = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, p := range splitCSV(s) {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// dropFold removes keys equal to code ignoring case; the config loader
// lowercases map keys.
func dropFold[V any](m map[string]V, code string) {
	for k := range m {
		if strings.EqualFold(k, code) {
			delete(m, k)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
