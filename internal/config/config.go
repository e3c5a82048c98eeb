// Package config loads the goibis command-line configuration from a
// TOML or YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goibis/goibis/ibis"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "GOIBIS_CONFIG"

// DefaultFiles are searched in order when no path is given.
var DefaultFiles = []string{"goibis.toml", "goibis.yaml", "goibis.yml"}

// Config holds the complete CLI configuration.
type Config struct {
	Diagnostics DiagnosticsConfig `toml:"diagnostics" yaml:"diagnostics"`
	// Extensions maps file extensions to dialect names, e.g. ".ibis" = "ibs".
	Extensions map[string]string `toml:"extensions" yaml:"extensions"`
}

// DiagnosticsConfig mirrors ibis.DiagnosticConfig with severities as names.
type DiagnosticsConfig struct {
	Ignore    []string          `toml:"ignore" yaml:"ignore"`
	FailAt    string            `toml:"fail_at" yaml:"fail_at"`
	Overrides map[string]string `toml:"overrides" yaml:"overrides"`
}

// Load reads the configuration at path. The format follows the
// extension: .yaml and .yml are YAML, anything else TOML.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
		}
	}
	cfg.applyDefaults()
	if _, err := cfg.DiagnosticConfig(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if _, err := cfg.ExtensionMap(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Find returns the config file to use: path if set, then $GOIBIS_CONFIG,
// then the first of DefaultFiles present in dir. It returns "" when
// there is none.
func Find(path, dir string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env
	}
	for _, name := range DefaultFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) applyDefaults() {
	if c.Diagnostics.FailAt == "" {
		c.Diagnostics.FailAt = ibis.SeverityFatal.String()
	}
}

// DiagnosticConfig converts the diagnostics section.
func (c *Config) DiagnosticConfig() (ibis.DiagnosticConfig, error) {
	out := ibis.DefaultConfig()
	if c == nil {
		return out, nil
	}
	if c.Diagnostics.FailAt != "" {
		sev, err := ibis.ParseSeverity(c.Diagnostics.FailAt)
		if err != nil {
			return out, fmt.Errorf("fail_at: %w", err)
		}
		out.FailAt = sev
	}
	out.Ignore = append(out.Ignore, c.Diagnostics.Ignore...)
	if len(c.Diagnostics.Overrides) > 0 {
		out.Overrides = make(map[string]ibis.Severity, len(c.Diagnostics.Overrides))
		for code, name := range c.Diagnostics.Overrides {
			sev, err := ibis.ParseSeverity(name)
			if err != nil {
				return out, fmt.Errorf("override %s: %w", code, err)
			}
			out.Overrides[code] = sev
		}
	}
	return out, nil
}

// ExtensionMap returns the maps in base overlaid with the extensions
// section.
func (c *Config) ExtensionMap(base ...map[string]ibis.Dialect) (map[string]ibis.Dialect, error) {
	out := make(map[string]ibis.Dialect)
	for _, b := range base {
		for ext, d := range b {
			out[ext] = d
		}
	}
	if c == nil {
		return out, nil
	}
	for ext, name := range c.Extensions {
		d, err := ibis.ParseDialect(name)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", ext, err)
		}
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = d
	}
	return out, nil
}
