package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/WindevClarify/core/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clarify.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.InternalKey != "internal_properties" || cfg.GroupKey != "properties" {
		t.Errorf("unexpected keys: %+v", cfg.Rules)
	}
	if cfg.EmptyContainers["style"] != "{}" || cfg.EmptyContainers["popup_menus"] != "[]" {
		t.Errorf("unexpected containers: %v", cfg.EmptyContainers)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `{
		"default_control_label": "Unknown control",
		"empty_containers": {"Menus": " [] "},
		"events_table": "events.txt"
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.DefaultControlLabel != "Unknown control" || cfg.EventsTable != "events.txt" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.DefaultEventLabel != DefaultEventLabel {
		t.Errorf("default event label lost: %q", cfg.DefaultEventLabel)
	}
	if cfg.EmptyContainers["menus"] != "[]" || cfg.EmptyContainers["style"] != "{}" {
		t.Errorf("containers not merged: %v", cfg.EmptyContainers)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing file: err = %v, want ErrNotFound", err)
	}

	var pe *errors.ParseError
	if _, err := LoadConfig(writeConfig(t, "{not json")); !errors.As(err, &pe) {
		t.Errorf("bad json: err = %v, want ParseError", err)
	}

	if _, err := LoadConfig(writeConfig(t, `{"type_key": " "}`)); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("empty key: err = %v, want ErrInvalidInput", err)
	}
}
