// Package config loads the apphost configuration.
//
// A configuration file is TOML or YAML, chosen by extension. Environment
// variables prefixed with APPHOST_ override file values (see ApplyEnv).
//
//	root = "pages/home"
//	resources = ["widgets/nav-bar", "widgets/user-card"]
//	pluginPaths = ["./plugins"]
//
//	[[plugins]]
//	module = "analytics"
//	config = { id = "UA-1" }
//
//	[log]
//	level = "debug"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/apphost/internal/logging"
)

// Config errors.
var (
	// ErrUnsupportedFormat is returned for a file extension that is neither
	// TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("invalid config")
)

// Format is a configuration file format.
type Format string

// Formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Config is the application configuration.
type Config struct {
	// Root is the element module attached by SetRoot.
	Root string `toml:"root" yaml:"root"`

	// Host is the id of the host element. Empty means "applicationHost".
	Host string `toml:"host" yaml:"host"`

	// Page is the HTML page holding the host element. Empty means a blank page.
	Page string `toml:"page" yaml:"page"`

	// PluginPaths are the directories searched for Lua modules, in order.
	PluginPaths []string `toml:"pluginPaths" yaml:"pluginPaths"`

	Plugins   []PluginConfig `toml:"plugins" yaml:"plugins"`
	Resources []string       `toml:"resources" yaml:"resources"`

	Log logging.Config `toml:"log" yaml:"log"`
}

// PluginConfig declares one plugin.
type PluginConfig struct {
	Module string         `toml:"module" yaml:"module"`
	Config map[string]any `toml:"config" yaml:"config"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Log: logging.DefaultConfig()}
}

// SearchPaths returns PluginPaths, or the working directory when none are
// configured.
func (c *Config) SearchPaths() []string {
	if len(c.PluginPaths) == 0 {
		return []string{"."}
	}
	return c.PluginPaths
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	var errs []error
	for i, p := range c.Plugins {
		if strings.TrimSpace(p.Module) == "" {
			errs = append(errs, fmt.Errorf("%w: plugins[%d]: module is required", ErrInvalid, i))
		}
	}
	for i, r := range c.Resources {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, fmt.Errorf("%w: resources[%d]: empty id", ErrInvalid, i))
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format))
	}
	return errors.Join(errs...)
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads path over the defaults, applies APPHOST_ environment
// overrides and validates the result. Relative plugin paths and page are
// resolved against the file's directory, which is also the plugin path
// when none is configured.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := Parse(data, format, cfg); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))

	if err := ApplyEnv(cfg, EnvPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in format into cfg. Keys absent from data keep their
// current values.
func Parse(data []byte, format Format, cfg *Config) error {
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, cfg)
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return &ParseError{Path: "<data>", Format: format, Err: err}
	}
	return nil
}

func (c *Config) resolvePaths(dir string) {
	if len(c.PluginPaths) == 0 {
		c.PluginPaths = []string{dir}
	}
	for i, p := range c.PluginPaths {
		if !filepath.IsAbs(p) {
			c.PluginPaths[i] = filepath.Join(dir, p)
		}
	}
	if c.Page != "" && !filepath.IsAbs(c.Page) {
		c.Page = filepath.Join(dir, c.Page)
	}
}

// ParseError is a configuration file that could not be decoded.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s config %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
