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
	// Parsing
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
	Locale     string `mapstructure:"locale" yaml:"locale"`

	// Dimension suitability
	CompletenessThreshold    float64 `mapstructure:"completeness_threshold" yaml:"completeness_threshold"`
	CardinalityLimitRatio    float64 `mapstructure:"cardinality_limit_ratio" yaml:"cardinality_limit_ratio"`
	CardinalityAbsoluteLimit int     `mapstructure:"cardinality_absolute_limit" yaml:"cardinality_absolute_limit"`

	// Planning
	AutoExclude        bool              `mapstructure:"auto_exclude" yaml:"auto_exclude"`
	ExcludedDimensions []string          `mapstructure:"excluded_dimensions" yaml:"excluded_dimensions"`
	RoleOverrides      map[string]string `mapstructure:"role_overrides" yaml:"role_overrides"`

	// Presentation
	ShowMissing bool `mapstructure:"show_missing" yaml:"show_missing"`
	Concurrency int  `mapstructure:"concurrency" yaml:"concurrency"`

	// Optional AI planning pass
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	AIModel string `mapstructure:"ai_model" yaml:"ai_model"`
	AIPlan  bool   `mapstructure:"ai_plan" yaml:"ai_plan"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.chartloom/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".chartloom")
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
	v.SetEnvPrefix("CHARTLOOM")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("date_format", "auto")
	v.SetDefault("locale", "default")
	v.SetDefault("completeness_threshold", 0.3)
	v.SetDefault("cardinality_limit_ratio", 0.5)
	v.SetDefault("cardinality_absolute_limit", 50)
	v.SetDefault("auto_exclude", true)
	v.SetDefault("excluded_dimensions", []string{})
	v.SetDefault("show_missing", false)
	v.SetDefault("concurrency", 4)
	v.SetDefault("ai_model", "openai/gpt-4o-mini")
	v.SetDefault("ai_plan", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".chartloom")
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
	return &c, nil
}
