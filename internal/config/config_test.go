package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/UFUNY/LiUNA-Dispatch/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Picker.UnscheduledPolicy != config.UnscheduledToday {
		t.Fatalf("unexpected default policy %q", cfg.Picker.UnscheduledPolicy)
	}
	if cfg.Activity.MaxEntries != 200 {
		t.Fatalf("unexpected default max entries %d", cfg.Activity.MaxEntries)
	}
	if !cfg.Geocode.Fallback.Enabled {
		t.Fatalf("fallback should default on")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	yml := "timezone: America/Los_Angeles\npicker:\n  unscheduled_policy: any\n"
	if err := os.WriteFile(filepath.Join(dir, "dispatch.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timezone != "America/Los_Angeles" {
		t.Fatalf("timezone not applied")
	}
	if cfg.Picker.UnscheduledPolicy != config.UnscheduledAny {
		t.Fatalf("policy not applied")
	}
	// unset keys keep defaults
	if cfg.Activity.MaxEntries != 200 {
		t.Fatalf("defaults lost on partial config")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []string{
		"picker:\n  unscheduled_policy: sometimes\n",
		"activity:\n  max_entries: 0\n",
		"timezone: Mars/Olympus\n",
		"geocode:\n  fallback:\n    enabled: true\n    lat: 123.0\n",
	}
	for _, yml := range cases {
		if _, err := config.FromYAML([]byte(yml)); err == nil {
			t.Errorf("expected validation error for %q", yml)
		}
	}
}
