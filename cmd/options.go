package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

// effectiveDateFormat maps the configured string to a parser format.
func effectiveDateFormat() (normalize.DateFormat, error) {
	if cfg == nil {
		return normalize.DateAuto, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.DateFormat)) {
	case "", "auto":
		return normalize.DateAuto, nil
	case "dd/mm/yyyy":
		return normalize.DateDMY, nil
	case "mm/dd/yyyy":
		return normalize.DateMDY, nil
	default:
		return "", fmt.Errorf("unsupported date_format: %s (use auto|dd/mm/yyyy|mm/dd/yyyy)", cfg.DateFormat)
	}
}

func effectiveLocale() (normalize.Locale, error) {
	if cfg == nil {
		return normalize.LocaleDefault, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Locale)) {
	case "", "default":
		return normalize.LocaleDefault, nil
	case "eu":
		return normalize.LocaleEU, nil
	default:
		return "", fmt.Errorf("unsupported locale: %s (use default|eu)", cfg.Locale)
	}
}

// planOptions assembles planner options from config plus per-command
// dimension exclusions.
func planOptions(extraExcluded []string) (plan.Options, error) {
	opts := plan.DefaultOptions()
	if cfg == nil {
		opts.ExcludedDimensions = extraExcluded
		return opts, nil
	}
	if cfg.CompletenessThreshold > 0 {
		opts.Thresholds.Completeness = cfg.CompletenessThreshold
	}
	if cfg.CardinalityLimitRatio > 0 {
		opts.Thresholds.CardinalityRatio = cfg.CardinalityLimitRatio
	}
	if cfg.CardinalityAbsoluteLimit > 0 {
		opts.Thresholds.CardinalityAbsolute = cfg.CardinalityAbsoluteLimit
	}
	opts.AutoExclude = cfg.AutoExclude
	opts.ExcludedDimensions = append(append([]string{}, cfg.ExcludedDimensions...), extraExcluded...)
	if len(cfg.RoleOverrides) > 0 {
		opts.RoleOverrides = map[string]roles.Role{}
		for col, role := range cfg.RoleOverrides {
			r, err := parseRole(role)
			if err != nil {
				return plan.Options{}, fmt.Errorf("role override for %q: %w", col, err)
			}
			opts.RoleOverrides[col] = r
		}
	}
	return opts, nil
}

func parseRole(s string) (roles.Role, error) {
	switch roles.Role(strings.ToLower(strings.TrimSpace(s))) {
	case roles.RoleMetric:
		return roles.RoleMetric, nil
	case roles.RoleMetricStrong:
		return roles.RoleMetricStrong, nil
	case roles.RoleDimension:
		return roles.RoleDimension, nil
	case roles.RoleDate:
		return roles.RoleDate, nil
	case roles.RoleID:
		return roles.RoleID, nil
	case roles.RoleIgnore:
		return roles.RoleIgnore, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func effectiveConcurrency() int {
	if cfg != nil && cfg.Concurrency > 0 {
		return cfg.Concurrency
	}
	return 4
}
