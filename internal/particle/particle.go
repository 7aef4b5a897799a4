package particle

import (
	"fmt"

	"github.com/san-kum/partsim/internal/kinematics"
)

// Particle is a value: a handle into a Registry plus a three-momentum. Mass and
// charge are always read through the handle, never stored.
type Particle struct {
	reg   *Registry
	index int
	bound bool
	p     kinematics.Vec3
}

// New returns a particle at rest with no species bound.
func New(reg *Registry) Particle {
	return Particle{reg: reg, index: -1}
}

// NewWith binds the named species and sets the momentum in one call.
func NewWith(reg *Registry, name string, px, py, pz float64) (Particle, error) {
	p := New(reg)
	if err := p.SetSpecies(name); err != nil {
		return Particle{}, err
	}
	if err := p.SetMomentum(px, py, pz); err != nil {
		return Particle{}, err
	}
	return p, nil
}

func (p *Particle) SetSpecies(name string) error {
	if p.reg == nil {
		return fmt.Errorf("%w: %q (no registry)", ErrUnknownSpecies, name)
	}
	idx, err := p.reg.IndexOf(name)
	if err != nil {
		return err
	}
	p.index, p.bound = idx, true
	return nil
}

// SetSpeciesIndex binds by handle. The returned error matches both
// ErrUnknownSpecies and ErrIndexOutOfRange for an unassigned handle.
func (p *Particle) SetSpeciesIndex(i int) error {
	if p.reg == nil {
		return fmt.Errorf("%w: index %d (no registry)", ErrUnknownSpecies, i)
	}
	if _, err := p.reg.At(i); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownSpecies, err)
	}
	p.index, p.bound = i, true
	return nil
}

// SetMomentum replaces the three-momentum. Non-finite components are rejected
// and leave the particle unchanged.
func (p *Particle) SetMomentum(px, py, pz float64) error {
	v := kinematics.Vec3{X: px, Y: py, Z: pz}
	if !v.IsFinite() {
		return fmt.Errorf("%w: momentum (%v, %v, %v)", ErrInvalidValue, px, py, pz)
	}
	p.p = v
	return nil
}

func (p Particle) Bound() bool { return p.bound }

func (p Particle) Registry() *Registry { return p.reg }

func (p Particle) Momentum() kinematics.Vec3 { return p.p }

// P is the momentum magnitude.
func (p Particle) P() float64 { return p.p.Norm() }

// Pt is the transverse momentum with respect to the z axis.
func (p Particle) Pt() float64 { return p.p.Perp() }

func (p Particle) Species() (Species, error) {
	if !p.bound {
		return Species{}, ErrUnboundSpecies
	}
	return p.reg.At(p.index)
}

func (p Particle) SpeciesIndex() (int, error) {
	if !p.bound {
		return -1, ErrUnboundSpecies
	}
	return p.index, nil
}

func (p Particle) Mass() (float64, error) {
	s, err := p.Species()
	if err != nil {
		return 0, err
	}
	return s.Mass, nil
}

func (p Particle) Charge() (int, error) {
	s, err := p.Species()
	if err != nil {
		return 0, err
	}
	return s.Charge, nil
}

// Energy is sqrt(|p|^2 + m^2).
func (p Particle) Energy() (float64, error) {
	fv, err := p.FourMomentum()
	if err != nil {
		return 0, err
	}
	return fv.E, nil
}

func (p Particle) FourMomentum() (kinematics.FourVector, error) {
	m, err := p.Mass()
	if err != nil {
		return kinematics.FourVector{}, err
	}
	return kinematics.OnShell(p.p, m), nil
}

// InvariantMass of the pair p+other. The result is never negative or NaN.
func (p Particle) InvariantMass(other Particle) (float64, error) {
	a, err := p.FourMomentum()
	if err != nil {
		return 0, err
	}
	b, err := other.FourMomentum()
	if err != nil {
		return 0, err
	}
	return kinematics.InvariantMass(a, b), nil
}

func (p Particle) String() string {
	s, err := p.Species()
	name := "<unbound>"
	if err == nil {
		name = s.Name
	}
	return fmt.Sprintf("%s p=(%.4f, %.4f, %.4f)", name, p.p.X, p.p.Y, p.p.Z)
}
