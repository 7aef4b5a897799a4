package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/metrics"
)

const (
	DefaultEvents            = 100000
	DefaultParticlesPerEvent = 100
	DefaultSeed              = 314234
	DefaultMomentumMean      = 1.0
	DefaultMaxSpecies        = 10
	DefaultDataDir           = ".partsim"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Events            int                        `yaml:"events"`
	ParticlesPerEvent int                        `yaml:"particles_per_event"`
	Seed              int64                      `yaml:"seed"`
	MomentumMean      float64                    `yaml:"momentum_mean"`
	Smear             bool                       `yaml:"smear"`
	MaxSpecies        int                        `yaml:"max_species"`
	DataDir           string                     `yaml:"data_dir,omitempty"`
	Species           []SpeciesConfig            `yaml:"species"`
	Composition       []FractionConfig           `yaml:"composition"`
	Channels          []ChannelConfig            `yaml:"channels"`
	Selection         SelectionConfig            `yaml:"selection"`
	Histograms        map[string]metrics.Binning `yaml:"histograms,omitempty"`
}

type SpeciesConfig struct {
	Name   string  `yaml:"name" json:"name"`
	Mass   float64 `yaml:"mass" json:"mass"`
	Charge int     `yaml:"charge" json:"charge"`
	Width  float64 `yaml:"width,omitempty" json:"width,omitempty"`
}

type FractionConfig struct {
	Species string  `yaml:"species" json:"species"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

type ChannelConfig struct {
	Parent string  `yaml:"parent" json:"parent"`
	A      string  `yaml:"a" json:"a"`
	B      string  `yaml:"b" json:"b"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// SelectionConfig names the species the pion+kaon histograms select on.
type SelectionConfig struct {
	Pions []string `yaml:"pions"`
	Kaons []string `yaml:"kaons"`
}

// DefaultConfig is the reference workload: pions, kaons, protons and the K*(892).
func DefaultConfig() *Config {
	return &Config{
		Events:            DefaultEvents,
		ParticlesPerEvent: DefaultParticlesPerEvent,
		Seed:              DefaultSeed,
		MomentumMean:      DefaultMomentumMean,
		MaxSpecies:        DefaultMaxSpecies,
		DataDir:           DefaultDataDir,
		Species: []SpeciesConfig{
			{Name: "pi+", Mass: 0.13957, Charge: 1},
			{Name: "pi-", Mass: 0.13957, Charge: -1},
			{Name: "K+", Mass: 0.49367, Charge: 1},
			{Name: "K-", Mass: 0.49367, Charge: -1},
			{Name: "p+", Mass: 0.93827, Charge: 1},
			{Name: "p-", Mass: 0.93827, Charge: -1},
			{Name: "K*", Mass: 0.89166, Charge: 0, Width: 0.050},
		},
		Composition: []FractionConfig{
			{Species: "pi+", Weight: 0.40},
			{Species: "pi-", Weight: 0.40},
			{Species: "K+", Weight: 0.05},
			{Species: "K-", Weight: 0.05},
			{Species: "p+", Weight: 0.045},
			{Species: "p-", Weight: 0.045},
			{Species: "K*", Weight: 0.01},
		},
		Channels: []ChannelConfig{
			{Parent: "K*", A: "pi+", B: "K-", Weight: 1},
			{Parent: "K*", A: "pi-", B: "K+", Weight: 1},
		},
		Selection: SelectionConfig{
			Pions: []string{"pi+", "pi-"},
			Kaons: []string{"K+", "K-"},
		},
	}
}

// Load reads a YAML file over the reference defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay decodes a YAML file onto cfg. Keys absent from the file keep their
// current values; lists present in the file replace cfg's.
func Overlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks counts and that every referenced species is declared.
// Physical values (masses, widths) are checked by the registry itself.
func (c *Config) Validate() error {
	if c.Events <= 0 {
		return fmt.Errorf("%w: events must be positive, got %d", ErrInvalidConfig, c.Events)
	}
	if c.ParticlesPerEvent <= 0 {
		return fmt.Errorf("%w: particles_per_event must be positive, got %d", ErrInvalidConfig, c.ParticlesPerEvent)
	}
	if !(c.MomentumMean > 0) || math.IsInf(c.MomentumMean, 0) {
		return fmt.Errorf("%w: momentum_mean must be positive and finite, got %v", ErrInvalidConfig, c.MomentumMean)
	}
	if len(c.Species) == 0 {
		return fmt.Errorf("%w: no species declared", ErrInvalidConfig)
	}
	if len(c.Composition) == 0 {
		return fmt.Errorf("%w: empty composition", ErrInvalidConfig)
	}

	declared := make(map[string]bool, len(c.Species))
	for _, s := range c.Species {
		declared[s.Name] = true
	}
	check := func(what, name string) error {
		if !declared[name] {
			return fmt.Errorf("%w: %s references undeclared species %q", ErrInvalidConfig, what, name)
		}
		return nil
	}

	total := 0.0
	for _, f := range c.Composition {
		if err := check("composition", f.Species); err != nil {
			return err
		}
		if f.Weight < 0 || !finite(f.Weight) {
			return fmt.Errorf("%w: weight %v for %q", ErrInvalidConfig, f.Weight, f.Species)
		}
		total += f.Weight
	}
	if total <= 0 {
		return fmt.Errorf("%w: composition weights sum to zero", ErrInvalidConfig)
	}

	for _, ch := range c.Channels {
		for _, n := range []string{ch.Parent, ch.A, ch.B} {
			if err := check("channel", n); err != nil {
				return err
			}
		}
		if !(ch.Weight > 0) || !finite(ch.Weight) {
			return fmt.Errorf("%w: channel %s -> %s %s needs a positive finite weight", ErrInvalidConfig, ch.Parent, ch.A, ch.B)
		}
	}
	for _, n := range append(append([]string{}, c.Selection.Pions...), c.Selection.Kaons...) {
		if err := check("selection", n); err != nil {
			return err
		}
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// envOverrides are read from the environment; zero values and nil pointers
// mean unset.
type envOverrides struct {
	Events    int    `env:"PARTSIM_EVENTS"`
	Particles int    `env:"PARTSIM_PARTICLES"`
	Seed      int64  `env:"PARTSIM_SEED"`
	DataDir   string `env:"PARTSIM_DATA_DIR"`
	Smear     *bool  `env:"PARTSIM_SMEAR"`
}

// ApplyEnv overlays PARTSIM_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.Events > 0 {
		cfg.Events = o.Events
	}
	if o.Particles > 0 {
		cfg.ParticlesPerEvent = o.Particles
	}
	if o.Seed != 0 {
		cfg.Seed = o.Seed
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Smear != nil {
		cfg.Smear = *o.Smear
	}
	return nil
}
