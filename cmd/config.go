package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ChartLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("date_format: %s\n", cfg.DateFormat)
		fmt.Printf("locale: %s\n", cfg.Locale)
		fmt.Printf("completeness_threshold: %.2f\n", cfg.CompletenessThreshold)
		fmt.Printf("cardinality_limit_ratio: %.2f\n", cfg.CardinalityLimitRatio)
		fmt.Printf("cardinality_absolute_limit: %d\n", cfg.CardinalityAbsoluteLimit)
		fmt.Printf("auto_exclude: %v\n", cfg.AutoExclude)
		if len(cfg.ExcludedDimensions) > 0 {
			fmt.Printf("excluded_dimensions: %s\n", strings.Join(cfg.ExcludedDimensions, ", "))
		}
		for col, role := range cfg.RoleOverrides {
			fmt.Printf("role_override: %s=%s\n", col, role)
		}
		fmt.Printf("show_missing: %v\n", cfg.ShowMissing)
		fmt.Printf("concurrency: %d\n", cfg.Concurrency)
		fmt.Printf("api_key: %s\n", mask(cfg.APIKey))
		fmt.Printf("ai_model: %s\n", cfg.AIModel)
		fmt.Printf("ai_plan: %v\n", cfg.AIPlan)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "date_format":
			switch strings.ToLower(val) {
			case "auto", "dd/mm/yyyy", "mm/dd/yyyy":
				cfg.DateFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid date_format: %s (use auto|dd/mm/yyyy|mm/dd/yyyy)", val)
			}
		case "locale":
			switch strings.ToLower(val) {
			case "default", "eu":
				cfg.Locale = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid locale: %s (use default|eu)", val)
			}
		case "completeness_threshold":
			f, err := parseRatio(val)
			if err != nil {
				return fmt.Errorf("invalid completeness_threshold: %w", err)
			}
			cfg.CompletenessThreshold = f
		case "cardinality_limit_ratio":
			f, err := parseRatio(val)
			if err != nil {
				return fmt.Errorf("invalid cardinality_limit_ratio: %w", err)
			}
			cfg.CardinalityLimitRatio = f
		case "cardinality_absolute_limit":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid cardinality_absolute_limit: %s", val)
			}
			cfg.CardinalityAbsoluteLimit = n
		case "auto_exclude":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid auto_exclude: %s", val)
			}
			cfg.AutoExclude = b
		case "show_missing":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid show_missing: %s", val)
			}
			cfg.ShowMissing = b
		case "concurrency":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid concurrency: %s", val)
			}
			cfg.Concurrency = n
		case "api_key":
			cfg.APIKey = val
		case "ai_model":
			cfg.AIModel = val
		case "ai_plan":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid ai_plan: %s", val)
			}
			cfg.AIPlan = b
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", key)
		return nil
	},
}

var configExcludeCmd = &cobra.Command{
	Use:   "exclude <column> [column...]",
	Short: "Add columns to the excluded-dimensions list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		have := map[string]bool{}
		for _, e := range cfg.ExcludedDimensions {
			have[e] = true
		}
		for _, col := range args {
			if !have[col] {
				cfg.ExcludedDimensions = append(cfg.ExcludedDimensions, col)
				have[col] = true
			}
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Excluded dimensions: %s\n", strings.Join(cfg.ExcludedDimensions, ", "))
		return nil
	},
}

var configRoleCmd = &cobra.Command{
	Use:   "role <column> <role>",
	Short: "Override the inferred role for a column",
	Long:  "Roles: metric, metric:strong, dimension, date, id, ignore.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		role, err := parseRole(args[1])
		if err != nil {
			return err
		}
		if cfg.RoleOverrides == nil {
			cfg.RoleOverrides = map[string]string{}
		}
		cfg.RoleOverrides[args[0]] = string(role)
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ %s treated as %s\n", args[0], role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configExcludeCmd)
	configCmd.AddCommand(configRoleCmd)
}

func parseRatio(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f > 1 {
		return 0, fmt.Errorf("%q is not in (0, 1]", s)
	}
	return f, nil
}

func mask(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "..." + s[len(s)-3:]
}
