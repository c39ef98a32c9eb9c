package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Respondent table layout
	CountryColumn string `mapstructure:"country_column" yaml:"country_column"`
	WaveColumn    string `mapstructure:"wave_column" yaml:"wave_column"`
	CohortColumn  string `mapstructure:"cohort_column" yaml:"cohort_column"`
	CohortValue   string `mapstructure:"cohort_value" yaml:"cohort_value"`
	CohortFilter  bool   `mapstructure:"cohort_filter" yaml:"cohort_filter"`

	// Aggregation rules
	Sentinels        []float64            `mapstructure:"sentinels" yaml:"sentinels"`
	SkipPrefixes     []string             `mapstructure:"skip_prefixes" yaml:"skip_prefixes"`
	ScaleMode        string               `mapstructure:"scale_mode" yaml:"scale_mode"`
	Scales           map[string]string    `mapstructure:"scales" yaml:"scales"`
	DefaultFavorable []float64            `mapstructure:"default_favorable" yaml:"default_favorable"`
	Favorable        map[string][]float64 `mapstructure:"favorable" yaml:"favorable"`
	// OmitZeroFavorable drops groups without favorable answers from the youth table
	OmitZeroFavorable bool `mapstructure:"omit_zero_favorable" yaml:"omit_zero_favorable"`

	// Dashboard defaults
	DefaultCountries []string `mapstructure:"default_countries" yaml:"default_countries"`
	EmissionsFrom    int      `mapstructure:"emissions_from" yaml:"emissions_from"`
	EmissionsTo      int      `mapstructure:"emissions_to" yaml:"emissions_to"`
	EPIYear          int      `mapstructure:"epi_year" yaml:"epi_year"`

	// Locations
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	WorkspacesDir string `mapstructure:"workspaces_dir" yaml:"workspaces_dir"`

	// HTTP
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.climatelens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CLIMATELENS")
	v.AutomaticEnv()

	v.SetDefault("country_column", "COUNTRY_ALPHA")
	v.SetDefault("wave_column", "S002VS")
	v.SetDefault("cohort_column", "X003R2")
	v.SetDefault("cohort_value", "1")
	v.SetDefault("cohort_filter", true)
	v.SetDefault("sentinels", []float64{-1, -2, -4, -5})
	v.SetDefault("skip_prefixes", []string{"S", "V", "W", "X", "Y", "M"})
	v.SetDefault("scale_mode", "inferred")
	v.SetDefault("scales", map[string]string{})
	v.SetDefault("default_favorable", []float64{3, 4})
	v.SetDefault("favorable", map[string][]float64{"B008": {4}})
	v.SetDefault("omit_zero_favorable", false)
	v.SetDefault("default_countries", []string{"AUS", "CAN", "CHN", "RUS", "DEU", "CHE", "USA"})
	v.SetDefault("emissions_from", 1981)
	v.SetDefault("emissions_to", 2023)
	v.SetDefault("epi_year", 2024)
	v.SetDefault("output_dir", "precalculated_data")
	v.SetDefault("server_addr", "127.0.0.1:8501")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.WorkspacesDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.WorkspacesDir = filepath.Join(dir, "workspaces")
	}
	return &c, nil
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".climatelens"), nil
}
