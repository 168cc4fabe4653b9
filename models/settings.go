package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultParserOrder is the fallback chain used when no explicit parser is
// chosen. The local parser avoids a third-party API round trip, so it goes
// first.
var DefaultParserOrder = []string{"local", "jsonlink", "microlink"}

// Settings holds runtime configuration for embed operations. Values come
// from CLI flags, optionally seeded from a yaml config file.
type Settings struct {
	ParserOrder    []string `yaml:"parser_order"`
	InPlace        bool     `yaml:"in_place"`
	CommitDelayMs  int      `yaml:"commit_delay_ms"`
	Debug          bool     `yaml:"debug"`
	VaultDir       string   `yaml:"vault_dir"`
	AttachmentDir  string   `yaml:"attachment_dir"`
	ServingBase    string   `yaml:"serving_base"`
	UserAgent      string   `yaml:"user_agent"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// DefaultSettings returns a Settings populated with workable defaults.
func DefaultSettings() *Settings {
	return &Settings{
		ParserOrder:    append([]string(nil), DefaultParserOrder...),
		AttachmentDir:  "attachments",
		ServingBase:    "http://localhost:8181",
		UserAgent:      "link-embed/1.0",
		TimeoutSeconds: 30,
	}
}

// LoadSettings reads a yaml settings file over the defaults.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if len(settings.ParserOrder) == 0 {
		settings.ParserOrder = append([]string(nil), DefaultParserOrder...)
	}
	return settings, nil
}
