package engine

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes from YAML either as a string accepted by
// time.ParseDuration or as an integer nanosecond count.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("engine: invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	default:
		return fmt.Errorf("engine: invalid duration type %T", raw)
	}
}

// Config is the YAML-loadable engine configuration. Zero values mean
// "not set" and leave the corresponding option at its default.
type Config struct {
	// URL is the connection URL.
	URL string `yaml:"url"`

	// IsolationLevel is applied to every new connection.
	IsolationLevel string `yaml:"isolation_level"`

	// Plugins are requested by name, applied after those named in the
	// URL.
	Plugins []string `yaml:"plugins"`

	// SlowThreshold configures the stats plugin's slow statement
	// threshold. It is passed through only when Plugins names "stats";
	// an engine whose stats plugin comes from the URL takes the
	// threshold from the stats_slow_threshold query parameter instead.
	SlowThreshold Duration `yaml:"slow_threshold"`

	// HideParameters stops bound parameters from appearing in wrapped
	// errors and log output.
	HideParameters bool `yaml:"hide_parameters"`

	// Args are construction keyword arguments consumed by plugins and
	// the dialect.
	Args map[string]any `yaml:"args"`
}

// LoadConfig decodes a YAML configuration.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("engine: decode config: %w", err)
	}
	return c, nil
}

// LoadConfigFile decodes a YAML configuration file.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Options translates the configuration into engine options.
func (c Config) Options() []Option {
	var opts []Option
	if c.IsolationLevel != "" {
		opts = append(opts, WithIsolationLevel(c.IsolationLevel))
	}
	if len(c.Plugins) > 0 {
		opts = append(opts, WithPlugins(c.Plugins...))
	}
	if c.HideParameters {
		opts = append(opts, WithHiddenParameters())
	}
	if len(c.Args) > 0 {
		opts = append(opts, WithArgs(c.Args))
	}
	if c.SlowThreshold > 0 && c.hasPlugin("stats") {
		opts = append(opts, WithArgs(map[string]any{
			"stats_slow_threshold": time.Duration(c.SlowThreshold),
		}))
	}
	return opts
}

func (c Config) hasPlugin(name string) bool {
	for _, p := range c.Plugins {
		if p == name {
			return true
		}
	}
	return false
}

// CreateFromConfig builds an engine from a decoded configuration.
// Additional options are applied after those derived from the
// configuration.
func CreateFromConfig(c Config, opts ...Option) (*Engine, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("engine: config has no url")
	}
	return Create(c.URL, append(c.Options(), opts...)...)
}
