package event

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/partsim/internal/kinematics"
	"github.com/san-kum/partsim/internal/particle"
)

// ErrInvalidOptions indicates a generator configuration that cannot be run.
var ErrInvalidOptions = errors.New("event: invalid generator options")

// Weight is the relative abundance of one species among generated slots.
type Weight struct {
	Species string
	Weight  float64
}

// Channel is one two-body decay mode of a resonance.
type Channel struct {
	Parent string
	A, B   string
	Weight float64
}

type Options struct {
	ParticlesPerEvent int
	// MomentumMean is the mean of the exponential momentum spectrum.
	MomentumMean float64
	Composition  []Weight
	Channels     []Channel
	Decayer      particle.Decayer
	Seed         int64
	Logger       *log.Logger
}

type table struct {
	cumulative []float64
	total      float64
}

// pick returns the slot whose cumulative weight first exceeds u*total.
func (t table) pick(u float64) int {
	x := u * t.total
	i := sort.Search(len(t.cumulative), func(i int) bool { return t.cumulative[i] > x })
	if i == len(t.cumulative) {
		i--
	}
	return i
}

type channelTable struct {
	table
	products [][2]int
}

// Generator produces events from a read-only registry. It owns its random
// stream; use one Generator per goroutine.
type Generator struct {
	reg      *particle.Registry
	rng      *rand.Rand
	perEvent int
	pMean    float64
	decayer  particle.Decayer
	logger   *log.Logger

	species     []int
	composition table
	channels    map[int]channelTable

	ev   Event
	next int
}

func NewGenerator(reg *particle.Registry, opts Options) (*Generator, error) {
	if opts.ParticlesPerEvent <= 0 {
		return nil, fmt.Errorf("%w: particles per event %d", ErrInvalidOptions, opts.ParticlesPerEvent)
	}
	if !(opts.MomentumMean > 0) || math.IsInf(opts.MomentumMean, 0) {
		return nil, fmt.Errorf("%w: momentum mean %v", ErrInvalidOptions, opts.MomentumMean)
	}

	g := &Generator{
		reg:      reg,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		perEvent: opts.ParticlesPerEvent,
		pMean:    opts.MomentumMean,
		decayer:  opts.Decayer,
		logger:   opts.Logger,
		channels: make(map[int]channelTable),
	}
	if g.logger == nil {
		g.logger = log.Default()
	}

	if err := g.buildComposition(opts.Composition); err != nil {
		return nil, err
	}
	if err := g.buildChannels(opts.Channels); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Generator) buildComposition(weights []Weight) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: empty composition", ErrInvalidOptions)
	}
	total := 0.0
	for _, w := range weights {
		if w.Weight < 0 || math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return fmt.Errorf("%w: weight %v for %q", ErrInvalidOptions, w.Weight, w.Species)
		}
		idx, err := g.reg.IndexOf(w.Species)
		if err != nil {
			return fmt.Errorf("composition: %w", err)
		}
		total += w.Weight
		g.species = append(g.species, idx)
		g.composition.cumulative = append(g.composition.cumulative, total)
	}
	if total <= 0 {
		return fmt.Errorf("%w: composition weights sum to zero", ErrInvalidOptions)
	}
	g.composition.total = total
	return nil
}

func (g *Generator) buildChannels(channels []Channel) error {
	for _, ch := range channels {
		if !(ch.Weight > 0) || math.IsInf(ch.Weight, 0) {
			return fmt.Errorf("%w: channel %s -> %s %s weight %v", ErrInvalidOptions, ch.Parent, ch.A, ch.B, ch.Weight)
		}
		parent, pidx, err := g.reg.Lookup(ch.Parent)
		if err != nil {
			return fmt.Errorf("channel parent: %w", err)
		}
		if !parent.IsResonance() {
			return fmt.Errorf("%w: %q has no width and cannot decay", ErrInvalidOptions, ch.Parent)
		}
		a, err := g.reg.IndexOf(ch.A)
		if err != nil {
			return fmt.Errorf("channel product: %w", err)
		}
		b, err := g.reg.IndexOf(ch.B)
		if err != nil {
			return fmt.Errorf("channel product: %w", err)
		}

		t := g.channels[pidx]
		t.total += ch.Weight
		t.cumulative = append(t.cumulative, t.total)
		t.products = append(t.products, [2]int{a, b})
		g.channels[pidx] = t
	}
	return nil
}

func (g *Generator) Registry() *particle.Registry { return g.reg }

// Next generates the following event. The returned Event is overwritten by
// the next call.
func (g *Generator) Next() *Event {
	ev := &g.ev
	ev.reset(g.next)
	g.next++

	for slot := 0; slot < g.perEvent; slot++ {
		if err := g.fill(ev); err != nil {
			ev.Skipped++
			g.logger.Printf("event %d slot %d: skipped: %v", ev.Index, slot, err)
		}
	}
	return ev
}

func (g *Generator) fill(ev *Event) error {
	theta := g.rng.Float64() * math.Pi
	phi := g.rng.Float64() * 2 * math.Pi
	p := g.rng.ExpFloat64() * g.pMean
	ev.Angles = append(ev.Angles, Angles{Theta: theta, Phi: phi})

	mom := kinematics.FromSpherical(p, theta, phi)
	part := particle.New(g.reg)
	if err := part.SetMomentum(mom.X, mom.Y, mom.Z); err != nil {
		return err
	}
	idx := g.species[g.composition.pick(g.rng.Float64())]
	if err := part.SetSpeciesIndex(idx); err != nil {
		return err
	}

	ch, ok := g.channels[idx]
	if !ok {
		ev.Particles = append(ev.Particles, part)
		return nil
	}

	prod := ch.products[ch.pick(g.rng.Float64())]
	a, b, err := g.decayer.Decay(part, prod[0], prod[1], g.rng)
	if errors.Is(err, particle.ErrKinematicallyForbidden) {
		ev.Forbidden++
		ev.Particles = append(ev.Particles, part)
		g.logger.Printf("event %d: %v", ev.Index, err)
		return nil
	}
	if err != nil {
		return err
	}

	ev.Resonances = append(ev.Resonances, part)
	ev.Products = append(ev.Products, a, b)
	return nil
}

// Run generates n events, passing each to the observers in order. It stops
// early when ctx is done and returns the totals so far with ctx.Err().
func (g *Generator) Run(ctx context.Context, n int, observers ...Observer) (Summary, error) {
	var sum Summary
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		ev := g.Next()
		for _, obs := range observers {
			obs.OnEvent(ev)
		}
		sum.add(ev)
	}
	return sum, nil
}
