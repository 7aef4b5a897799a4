package experiment

import (
	"fmt"
	"log"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/particle"
)

// BuildRegistry declares the configured species in order, so handles follow
// the order of cfg.Species.
func BuildRegistry(cfg *config.Config) (*particle.Registry, error) {
	reg := particle.NewRegistry(cfg.MaxSpecies)
	for _, s := range cfg.Species {
		if _, err := reg.Add(s.Name, s.Mass, s.Charge, s.Width); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.Name, err)
		}
	}
	return reg, nil
}

func GeneratorOptions(cfg *config.Config, logger *log.Logger) event.Options {
	opts := event.Options{
		ParticlesPerEvent: cfg.ParticlesPerEvent,
		MomentumMean:      cfg.MomentumMean,
		Decayer:           particle.Decayer{Smear: cfg.Smear},
		Seed:              cfg.Seed,
		Logger:            logger,
	}
	for _, f := range cfg.Composition {
		opts.Composition = append(opts.Composition, event.Weight{Species: f.Species, Weight: f.Weight})
	}
	for _, ch := range cfg.Channels {
		opts.Channels = append(opts.Channels, event.Channel{Parent: ch.Parent, A: ch.A, B: ch.B, Weight: ch.Weight})
	}
	return opts
}

func AnalysisOptions(cfg *config.Config) metrics.AnalysisOptions {
	return metrics.AnalysisOptions{
		Pions:    cfg.Selection.Pions,
		Kaons:    cfg.Selection.Kaons,
		Binnings: cfg.Histograms,
	}
}
