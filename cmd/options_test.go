package cmd

import (
	"testing"

	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
	"github.com/KaramelBytes/chartloom-cli/internal/normalize"
	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

func TestEffectiveDateFormat(t *testing.T) {
	defer func() { cfg = nil }()

	cfg = nil
	if df, err := effectiveDateFormat(); err != nil || df != normalize.DateAuto {
		t.Fatalf("nil config = (%v, %v)", df, err)
	}
	cfg = &cfgpkg.Global{DateFormat: "DD/MM/YYYY"}
	if df, err := effectiveDateFormat(); err != nil || df != normalize.DateDMY {
		t.Fatalf("dd/mm/yyyy = (%v, %v)", df, err)
	}
	cfg = &cfgpkg.Global{DateFormat: "yyyy-mm"}
	if _, err := effectiveDateFormat(); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEffectiveLocale(t *testing.T) {
	defer func() { cfg = nil }()

	cfg = &cfgpkg.Global{Locale: "eu"}
	if l, err := effectiveLocale(); err != nil || l != normalize.LocaleEU {
		t.Fatalf("eu = (%v, %v)", l, err)
	}
	cfg = &cfgpkg.Global{Locale: "fr"}
	if _, err := effectiveLocale(); err == nil {
		t.Fatal("expected error for unsupported locale")
	}
}

func TestPlanOptionsMergesConfig(t *testing.T) {
	defer func() { cfg = nil }()

	cfg = &cfgpkg.Global{
		CompletenessThreshold: 0.6,
		ExcludedDimensions:    []string{"Notes"},
		RoleOverrides:         map[string]string{"Region": "ignore"},
		AutoExclude:           true,
	}
	opts, err := planOptions([]string{"Remarks"})
	if err != nil {
		t.Fatalf("planOptions: %v", err)
	}
	if opts.Thresholds.Completeness != 0.6 {
		t.Fatalf("completeness = %v", opts.Thresholds.Completeness)
	}
	if len(opts.ExcludedDimensions) != 2 {
		t.Fatalf("excluded = %v", opts.ExcludedDimensions)
	}
	if opts.RoleOverrides["Region"] != roles.RoleIgnore {
		t.Fatalf("overrides = %v", opts.RoleOverrides)
	}

	cfg.RoleOverrides["Region"] = "boss"
	if _, err := planOptions(nil); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseRatioAndMask(t *testing.T) {
	if _, err := parseRatio("0"); err == nil {
		t.Fatal("0 should be rejected")
	}
	if v, err := parseRatio("0.5"); err != nil || v != 0.5 {
		t.Fatalf("0.5 = (%v, %v)", v, err)
	}
	if mask("") != "(unset)" {
		t.Fatal("empty key should be unset")
	}
	if mask("sk-or-abc123def") != "sk-...def" {
		t.Fatalf("mask = %q", mask("sk-or-abc123def"))
	}
}
