package experiment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/particle"
)

// Result is the outcome of a completed or interrupted run.
type Result struct {
	Summary    event.Summary
	Histograms []*metrics.Histogram
	Elapsed    time.Duration
}

// Experiment owns one generator and the observers fed from it. It is not
// safe for concurrent use.
type Experiment struct {
	cfg       *config.Config
	registry  *particle.Registry
	generator *event.Generator
	analysis  *metrics.Analysis
	counters  *metrics.Counters
	observers []event.Observer

	total   event.Summary
	elapsed time.Duration
}

func New(cfg *config.Config, logger *log.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := event.NewGenerator(reg, GeneratorOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	analysis, err := metrics.NewAnalysis(reg, AnalysisOptions(cfg))
	if err != nil {
		return nil, err
	}
	counters := metrics.NewCounters()

	return &Experiment{
		cfg:       cfg,
		registry:  reg,
		generator: gen,
		analysis:  analysis,
		counters:  counters,
		observers: []event.Observer{analysis, counters},
	}, nil
}

// AddObserver registers an extra observer, called after the analysis and counters.
func (e *Experiment) AddObserver(o event.Observer) {
	e.observers = append(e.observers, o)
}

// Step generates up to n more events without exceeding the configured total.
func (e *Experiment) Step(ctx context.Context, n int) (event.Summary, error) {
	if left := e.Remaining(); n > left {
		n = left
	}
	start := time.Now()
	sum, err := e.generator.Run(ctx, n, e.observers...)
	e.elapsed += time.Since(start)

	e.total.Merge(sum)
	return sum, err
}

// Run generates the remaining events of the configuration.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if _, err := e.Step(ctx, e.Remaining()); err != nil {
		return e.Result(), fmt.Errorf("run interrupted after %d events: %w", e.total.Events, err)
	}
	return e.Result(), nil
}

func (e *Experiment) Result() *Result {
	return &Result{
		Summary:    e.total,
		Histograms: e.analysis.Histograms(),
		Elapsed:    e.elapsed,
	}
}

func (e *Experiment) Remaining() int { return e.cfg.Events - e.total.Events }

func (e *Experiment) Done() bool { return e.Remaining() <= 0 }

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Registry() *particle.Registry { return e.registry }

func (e *Experiment) Analysis() *metrics.Analysis { return e.analysis }

func (e *Experiment) Counters() *metrics.Counters { return e.counters }
