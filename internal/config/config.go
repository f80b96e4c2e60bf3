// Package config loads pgmermaid defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/pgmermaid/internal/export"
	"github.com/tordrt/pgmermaid/internal/formatter"
)

// Config holds the render and export defaults
type Config struct {
	Mode           string       `yaml:"mode"`
	Format         string       `yaml:"format"`
	MaxColumns     int          `yaml:"max_columns"`
	SchemaPrefix   bool         `yaml:"schema_prefix"`
	GroupBySchema  bool         `yaml:"group_by_schema"`
	ConnectedOnly  bool         `yaml:"connected_only"`
	Title          string       `yaml:"title,omitempty"`
	IncludeSchemas []string     `yaml:"include_schemas,omitempty"`
	ExcludeSchemas []string     `yaml:"exclude_schemas,omitempty"`
	IncludeTables  []string     `yaml:"include_tables,omitempty"`
	ExcludeTables  []string     `yaml:"exclude_tables,omitempty"`
	Export         ExportConfig `yaml:"export"`
}

// ExportConfig holds image export settings
type ExportConfig struct {
	Method     string        `yaml:"method"`
	Theme      string        `yaml:"theme"`
	Background string        `yaml:"background"`
	Scale      int           `yaml:"scale"`
	Timeout    time.Duration `yaml:"timeout"`
	KrokiURL   string        `yaml:"kroki_url"`
}

// DefaultConfig returns a Config matching the built-in defaults
func DefaultConfig() *Config {
	render := formatter.DefaultOptions()
	exp := export.DefaultOptions()

	return &Config{
		Mode:         string(render.Mode),
		Format:       string(render.Format),
		MaxColumns:   render.MaxColumns,
		SchemaPrefix: render.ShowSchemaPrefix,
		Export: ExportConfig{
			Method:     string(exp.Method),
			Theme:      exp.Theme,
			Background: exp.Background,
			Scale:      exp.Scale,
			Timeout:    exp.Timeout,
			KrokiURL:   exp.KrokiURL,
		},
	}
}

// Dir returns the pgmermaid configuration directory, typically
// ~/.config/pgmermaid
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "pgmermaid"), nil
}

// Load reads the YAML file at path over the defaults. A missing file yields
// DefaultConfig without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads Dir()/config.yaml
func LoadDefault() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "config.yaml"))
}

// Validate rejects unknown enumerated values and negative numbers
func (c *Config) Validate() error {
	if _, err := formatter.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := formatter.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := export.ParseMethod(c.Export.Method); err != nil {
		return err
	}
	if c.MaxColumns < 0 {
		return fmt.Errorf("max_columns must not be negative, got %d", c.MaxColumns)
	}
	if c.Export.Scale < 0 {
		return fmt.Errorf("export.scale must not be negative, got %d", c.Export.Scale)
	}
	return nil
}

// RenderOptions converts the config to formatter options. Call Validate
// first; unknown values fall back to defaults.
func (c *Config) RenderOptions() formatter.Options {
	opts := formatter.DefaultOptions()
	if mode, err := formatter.ParseMode(c.Mode); err == nil {
		opts.Mode = mode
	}
	if format, err := formatter.ParseFormat(c.Format); err == nil {
		opts.Format = format
	}
	opts.MaxColumns = c.MaxColumns
	opts.ShowSchemaPrefix = c.SchemaPrefix
	opts.GroupBySchema = c.GroupBySchema
	opts.ConnectedOnly = c.ConnectedOnly
	opts.Title = c.Title
	opts.IncludeSchemas = c.IncludeSchemas
	opts.ExcludeSchemas = c.ExcludeSchemas
	opts.IncludeTables = c.IncludeTables
	opts.ExcludeTables = c.ExcludeTables
	return opts
}

// ExportOptions converts the config to exporter options. The image format
// is chosen per run and is left at its default.
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	if method, err := export.ParseMethod(c.Export.Method); err == nil {
		opts.Method = method
	}
	if c.Export.Theme != "" {
		opts.Theme = c.Export.Theme
	}
	if c.Export.Background != "" {
		opts.Background = c.Export.Background
	}
	if c.Export.Scale > 0 {
		opts.Scale = c.Export.Scale
	}
	opts.Timeout = c.Export.Timeout
	if c.Export.KrokiURL != "" {
		opts.KrokiURL = c.Export.KrokiURL
	}
	return opts
}
