package config

import (
	"maps"
	"sort"

	"github.com/san-kum/potman/internal/potential"
)

// Presets are named setups for the built-in potentials.
var Presets = map[string]*Config{
	"harmonic": {
		Potential: builtin("harmonic", nil),
		Random:    RandomConfig{Geometries: 10000, Atoms: 4, Scale: 1, Seed: 1},
	},
	"h2-morse": {
		Potential: builtin("morse", nil),
		Random:    RandomConfig{Geometries: 5000, Atoms: 2, Scale: 1.2, Seed: 1},
	},
	"argon-lj": {
		Potential: builtin("lj", nil),
		Random:    RandomConfig{Geometries: 500, Atoms: 13, Scale: 8, Seed: 1},
	},
	"water-harmonic": {
		Potential: builtin("water", nil),
		Units:     UnitsWavenumber,
		Random:    RandomConfig{Geometries: 5000, Atoms: 3, Scale: 1.5, Seed: 1},
	},
	"stiff-morse": {
		Potential: builtin("morse", map[string]any{"a": 1.5}),
		Random:    RandomConfig{Geometries: 5000, Atoms: 2, Scale: 1.2, Seed: 1},
	},
}

func builtin(module string, params map[string]any) potential.Source {
	return potential.Source{Function: "potential", File: module, Directory: ".", Params: params}
}

// GetPreset returns the named preset laid over DefaultConfig, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Potential = p.Potential
	cfg.Potential.Params = maps.Clone(p.Potential.Params)
	cfg.Random = p.Random
	if p.Units != "" {
		cfg.Units = p.Units
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
