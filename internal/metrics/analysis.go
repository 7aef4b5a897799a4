package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/particle"
)

// Binning overrides the default bins and range of one histogram.
type Binning struct {
	Bins int     `yaml:"bins" json:"bins"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// Histogram names used by Analysis.
const (
	HistTypes             = "types"
	HistPolar             = "polar"
	HistAzimuthal         = "azimuthal"
	HistMomentum          = "momentum"
	HistTransverse        = "transverse_momentum"
	HistEnergy            = "energy"
	HistInvMass           = "invmass"
	HistInvMassOpposite   = "invmass_opposite"
	HistInvMassSame       = "invmass_same"
	HistInvMassOppositePK = "invmass_opposite_pk"
	HistInvMassSamePK     = "invmass_same_pk"
	HistInvMassDecay      = "invmass_decay"
)

// DefaultBinnings are the reference workload's histograms. The particle type
// histogram is sized from the registry.
var DefaultBinnings = map[string]Binning{
	HistPolar:             {180, 0, math.Pi},
	HistAzimuthal:         {360, 0, 2 * math.Pi},
	HistMomentum:          {500, 0, 7},
	HistTransverse:        {500, 0, 7},
	HistEnergy:            {100, 0, 10},
	HistInvMass:           {100, 0, 8},
	HistInvMassOpposite:   {100, 0, 8},
	HistInvMassSame:       {100, 0, 8},
	HistInvMassOppositePK: {100, 0, 8},
	HistInvMassSamePK:     {100, 0, 8},
	HistInvMassDecay:      {100, 0.7, 1.1},
}

type AnalysisOptions struct {
	Pions    []string
	Kaons    []string
	Binnings map[string]Binning
}

// Analysis fills the standard histogram set from every event it observes.
type Analysis struct {
	Types             *Histogram
	Polar             *Histogram
	Azimuthal         *Histogram
	Momentum          *Histogram
	Transverse        *Histogram
	Energy            *Histogram
	InvMass           *Histogram
	InvMassOpposite   *Histogram
	InvMassSame       *Histogram
	InvMassOppositePK *Histogram
	InvMassSamePK     *Histogram
	InvMassDecay      *Histogram

	pairs   []pairHistogram
	ordered []*Histogram
}

// pairHistogram receives the invariant mass of every pair sel accepts.
type pairHistogram struct {
	sel event.Selector
	h   *Histogram
}

func NewAnalysis(reg *particle.Registry, opts AnalysisOptions) (*Analysis, error) {
	pk, err := event.PionKaon(reg, opts.Pions, opts.Kaons)
	if err != nil {
		return nil, err
	}

	a := &Analysis{}
	n := float64(reg.Count())
	build := func(dst **Histogram, name string, def Binning) error {
		b := def
		if o, ok := opts.Binnings[name]; ok {
			b = o
		}
		h, err := NewHistogram(name, b.Bins, b.Min, b.Max)
		if err != nil {
			return err
		}
		*dst = h
		a.ordered = append(a.ordered, h)
		return nil
	}

	specs := []struct {
		dst  **Histogram
		name string
	}{
		{&a.Polar, HistPolar},
		{&a.Azimuthal, HistAzimuthal},
		{&a.Momentum, HistMomentum},
		{&a.Transverse, HistTransverse},
		{&a.Energy, HistEnergy},
		{&a.InvMass, HistInvMass},
		{&a.InvMassOpposite, HistInvMassOpposite},
		{&a.InvMassSame, HistInvMassSame},
		{&a.InvMassOppositePK, HistInvMassOppositePK},
		{&a.InvMassSamePK, HistInvMassSamePK},
		{&a.InvMassDecay, HistInvMassDecay},
	}

	if err := build(&a.Types, HistTypes, Binning{Bins: reg.Count(), Min: 0, Max: n}); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	for _, s := range specs {
		if err := build(s.dst, s.name, DefaultBinnings[s.name]); err != nil {
			return nil, fmt.Errorf("analysis: %w", err)
		}
	}

	a.pairs = []pairHistogram{
		{event.AnyPair, a.InvMass},
		{event.OppositeCharge, a.InvMassOpposite},
		{event.SameCharge, a.InvMassSame},
		{event.And(event.OppositeCharge, pk), a.InvMassOppositePK},
		{event.And(event.SameCharge, pk), a.InvMassSamePK},
	}
	return a, nil
}

// OnEvent fills every histogram from ev. The type histogram counts each
// particle the event held: final-state slots, decay products and the
// resonances they came from. Kinematic histograms use only the final state.
func (a *Analysis) OnEvent(ev *event.Event) {
	all := ev.All()
	for _, set := range [][]particle.Particle{all, ev.Resonances} {
		for _, p := range set {
			if idx, err := p.SpeciesIndex(); err == nil {
				a.Types.Fill(float64(idx))
			}
		}
	}
	for _, ang := range ev.Angles {
		a.Polar.Fill(ang.Theta)
		a.Azimuthal.Fill(ang.Phi)
	}

	for i, p := range all {
		a.Momentum.Fill(p.P())
		a.Transverse.Fill(p.Pt())
		if e, err := p.Energy(); err == nil {
			a.Energy.Fill(e)
		}

		for _, q := range all[i+1:] {
			m, err := p.InvariantMass(q)
			if err != nil {
				continue
			}
			for _, ph := range a.pairs {
				if ph.sel(p, q) {
					ph.h.Fill(m)
				}
			}
		}
	}

	for i := 0; i+1 < len(ev.Products); i += 2 {
		if m, err := ev.Products[i].InvariantMass(ev.Products[i+1]); err == nil {
			a.InvMassDecay.Fill(m)
		}
	}
}

// Histograms returns the set in a stable order.
func (a *Analysis) Histograms() []*Histogram { return a.ordered }

func (a *Analysis) Get(name string) (*Histogram, bool) {
	for _, h := range a.ordered {
		if h.Name == name {
			return h, true
		}
	}
	return nil, false
}

func (a *Analysis) Reset() {
	for _, h := range a.ordered {
		h.Reset()
	}
}
