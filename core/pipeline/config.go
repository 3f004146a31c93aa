package pipeline

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/errors"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
)

// Default labels written when a type code is missing from its table.
const (
	DefaultEventLabel   = "Type d’événement à préciser"
	DefaultControlLabel = "Control inconnu"
)

// Config holds the pipeline settings.
type Config struct {
	classify.Rules

	// DefaultEventLabel annotates unmapped event types.
	DefaultEventLabel string `json:"default_event_label"`
	// DefaultControlLabel annotates unmapped control types.
	DefaultControlLabel string `json:"default_control_label"`

	// EventsTable and ControlsTable are the table file names inside the
	// tables directory.
	EventsTable   string `json:"events_table"`
	ControlsTable string `json:"controls_table"`
}

// DefaultConfig returns the configuration for WinDev window exports.
func DefaultConfig() Config {
	return Config{
		Rules:               classify.DefaultRules(),
		DefaultEventLabel:   DefaultEventLabel,
		DefaultControlLabel: DefaultControlLabel,
		EventsTable:         lookup.EventsFile,
		ControlsTable:       lookup.ControlsFile,
	}
}

// LoadConfig reads a JSON file over the defaults. Fields absent from the file
// keep their default value; container literals are merged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.NewNotFound("config", path)
		}
		return cfg, errors.NewIO("read", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		pe := errors.NewParse("config", path, err.Error())
		pe.Err = err
		return DefaultConfig(), pe
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if len(c.EmptyContainers) == 0 {
		return
	}
	m := make(map[string]string, len(c.EmptyContainers))
	for k, v := range c.EmptyContainers {
		m[strings.ToLower(k)] = strings.TrimSpace(v)
	}
	c.EmptyContainers = m
}

// Validate checks that every key the pipeline relies on is set.
func (c Config) Validate() error {
	required := map[string]string{
		"internal_key":      c.InternalKey,
		"group_key":         c.GroupKey,
		"event_section_key": c.EventSectionKey,
		"anchor_key":        c.AnchorKey,
		"identifier_key":    c.IdentifierKey,
		"type_key":          c.TypeKey,
		"events_table":      c.EventsTable,
		"controls_table":    c.ControlsTable,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return errors.Wrapf(errors.ErrInvalidInput, "config field %s is empty", name)
		}
	}
	return nil
}
