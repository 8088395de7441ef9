package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/san-kum/potman/internal/dispatch"
	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/potential"
)

const (
	EnvPrefix = "POTMAN_"

	UnitsHartree    = "hartree"
	UnitsWavenumber = "cm-1"

	DefaultDataDir      = ".potman"
	DefaultProbeTimeout = 10 * time.Second
	DefaultGeometries   = 1000
	DefaultScale        = 3.0
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Potential    potential.Source `yaml:"potential"`
	Pool         int              `yaml:"pool"`
	MaxWorkers   int              `yaml:"max_workers"`
	DataDir      string           `yaml:"data_dir"`
	Units        string           `yaml:"units"`
	ProbeTimeout time.Duration    `yaml:"probe_timeout"`
	Random       RandomConfig     `yaml:"random"`
	Log          LogConfig        `yaml:"log"`
	Metrics      MetricsConfig    `yaml:"metrics"`
}

// RandomConfig describes a synthetic batch, coordinates in angstrom.
type RandomConfig struct {
	Geometries int     `yaml:"geometries"`
	Atoms      int     `yaml:"atoms"`
	Scale      float64 `yaml:"scale"`
	Seed       int64   `yaml:"seed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Potential: potential.Source{
			Function:  "potential",
			File:      "harmonic",
			Directory: ".",
		},
		MaxWorkers:   dispatch.DefaultMaxWorkers(),
		DataDir:      DefaultDataDir,
		Units:        UnitsHartree,
		ProbeTimeout: DefaultProbeTimeout,
		Random: RandomConfig{
			Geometries: DefaultGeometries,
			Atoms:      2,
			Scale:      DefaultScale,
			Seed:       1,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path over the defaults and applies POTMAN_ environment
// overrides; nested keys use a double underscore, as in
// POTMAN_POTENTIAL__FILE. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, filepath.Ext(path))
	}
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func Save(path string, cfg *Config) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Potential.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Pool < 0 {
		return fmt.Errorf("%w: pool must be >= 0, got %d", ErrInvalidConfig, c.Pool)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be >= 1, got %d", ErrInvalidConfig, c.MaxWorkers)
	}
	switch c.Units {
	case UnitsHartree, UnitsWavenumber:
	default:
		return fmt.Errorf("%w: unknown units %q", ErrInvalidConfig, c.Units)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Random.Atoms < 1 || c.Random.Geometries < 0 {
		return fmt.Errorf("%w: random batch needs atoms >= 1 and geometries >= 0", ErrInvalidConfig)
	}
	return nil
}

// Convert expresses a hartree energy in the configured units.
func (c *Config) Convert(hartree float64) float64 {
	if c.Units == UnitsWavenumber {
		return hartree * geometry.HartreeToWavenumber
	}
	return hartree
}
