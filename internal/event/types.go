package event

import "github.com/san-kum/partsim/internal/particle"

// Angles are the generation angles of one slot, kept for reporting.
type Angles struct {
	Theta float64
	Phi   float64
}

// Event is the particle collection of one simulated event. The generator
// reuses its storage, so observers must not retain an Event or its slices
// after OnEvent returns.
type Event struct {
	Index int

	// Particles are the final-state slots: stable species and resonances whose
	// decay was not possible.
	Particles []particle.Particle

	// Resonances are the parents that decayed; they are replaced by Products
	// in every downstream measurement.
	Resonances []particle.Particle

	// Products holds decay daughters in consecutive pairs.
	Products []particle.Particle

	Angles    []Angles
	Skipped   int
	Forbidden int

	all []particle.Particle
}

// All returns the final-state collection: Particles followed by Products.
func (e *Event) All() []particle.Particle {
	e.all = append(e.all[:0], e.Particles...)
	e.all = append(e.all, e.Products...)
	return e.all
}

// Decays is the number of product pairs in the event.
func (e *Event) Decays() int { return len(e.Products) / 2 }

func (e *Event) reset(index int) {
	e.Index = index
	e.Particles = e.Particles[:0]
	e.Resonances = e.Resonances[:0]
	e.Products = e.Products[:0]
	e.Angles = e.Angles[:0]
	e.Skipped = 0
	e.Forbidden = 0
}

type Observer interface {
	OnEvent(ev *Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev *Event)

func (f ObserverFunc) OnEvent(ev *Event) { f(ev) }

// Summary totals a run.
type Summary struct {
	Events    int `json:"events" yaml:"events"`
	Particles int `json:"particles" yaml:"particles"`
	Decays    int `json:"decays" yaml:"decays"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Forbidden int `json:"forbidden" yaml:"forbidden"`
}

func (s *Summary) add(ev *Event) {
	s.Events++
	s.Particles += len(ev.Particles) + len(ev.Products)
	s.Decays += ev.Decays()
	s.Skipped += ev.Skipped
	s.Forbidden += ev.Forbidden
}

// Merge adds the totals of o to s.
func (s *Summary) Merge(o Summary) {
	s.Events += o.Events
	s.Particles += o.Particles
	s.Decays += o.Decays
	s.Skipped += o.Skipped
	s.Forbidden += o.Forbidden
}
