package particle

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/kinematics"
)

// Rand is the random source used for decay angles and mass sampling.
type Rand = kinematics.Rand

// DefaultSmearTries bounds the Breit-Wigner rejection loop.
const DefaultSmearTries = 100

// Decayer performs two-body decays. The zero value decays at the nominal
// parent mass.
type Decayer struct {
	// Smear samples the parent mass from a Breit-Wigner of the species width,
	// rejecting values below the product threshold. Energy is then conserved
	// with respect to the sampled mass rather than the nominal one.
	Smear bool

	// MaxTries caps rejection sampling when Smear is set; zero means DefaultSmearTries.
	MaxTries int
}

// DecayTwoBody decays parent into the species a and b, named in parent's registry.
func DecayTwoBody(parent Particle, a, b string, rng Rand) (Particle, Particle, error) {
	if !parent.bound {
		return Particle{}, Particle{}, ErrUnboundSpecies
	}
	ia, err := parent.reg.IndexOf(a)
	if err != nil {
		return Particle{}, Particle{}, err
	}
	ib, err := parent.reg.IndexOf(b)
	if err != nil {
		return Particle{}, Particle{}, err
	}
	return Decayer{}.Decay(parent, ia, ib, rng)
}

// Decay splits parent into products with handles a and b. The parent is not
// modified. In the parent rest frame the products are back to back along an
// isotropic direction; both are then boosted with beta = p/E, gamma = E/M so
// that their four-momenta sum to the parent's.
func (d Decayer) Decay(parent Particle, a, b int, rng Rand) (Particle, Particle, error) {
	ps, err := parent.Species()
	if err != nil {
		return Particle{}, Particle{}, err
	}
	sa, err := parent.reg.At(a)
	if err != nil {
		return Particle{}, Particle{}, fmt.Errorf("%w: %w", ErrUnknownSpecies, err)
	}
	sb, err := parent.reg.At(b)
	if err != nil {
		return Particle{}, Particle{}, fmt.Errorf("%w: %w", ErrUnknownSpecies, err)
	}

	mass := ps.Mass
	if d.Smear && ps.IsResonance() {
		mass, err = d.sampleMass(ps, sa.Mass+sb.Mass, rng)
		if err != nil {
			return Particle{}, Particle{}, &DecayError{
				Parent: ps.Name, ProductA: sa.Name, ProductB: sb.Name,
				ParentMass: ps.Mass, MassA: sa.Mass, MassB: sb.Mass,
				Wrapped: err,
			}
		}
	}

	q, ok := kinematics.TwoBodyMomentum(mass, sa.Mass, sb.Mass)
	if !ok {
		return Particle{}, Particle{}, &DecayError{
			Parent: ps.Name, ProductA: sa.Name, ProductB: sb.Name,
			ParentMass: mass, MassA: sa.Mass, MassB: sb.Mass,
			Wrapped: ErrKinematicallyForbidden,
		}
	}

	lab := kinematics.OnShell(parent.p, mass)
	if math.IsInf(lab.E, 0) || math.IsNaN(lab.E) {
		return Particle{}, Particle{}, fmt.Errorf("%w: parent energy %v", ErrInvalidValue, lab.E)
	}

	dir := kinematics.IsotropicDirection(rng)
	restA := kinematics.OnShell(dir.Scale(q), sa.Mass)
	restB := kinematics.OnShell(dir.Scale(-q), sb.Mass)

	labA := kinematics.BoostFromRest(restA, lab, mass)
	labB := kinematics.BoostFromRest(restB, lab, mass)

	pa := Particle{reg: parent.reg, index: a, bound: true, p: labA.P}
	pb := Particle{reg: parent.reg, index: b, bound: true, p: labB.P}
	return pa, pb, nil
}

// sampleMass draws from a non-relativistic Breit-Wigner (Cauchy) centred on the
// nominal mass with FWHM equal to the width, above threshold.
func (d Decayer) sampleMass(s Species, threshold float64, rng Rand) (float64, error) {
	tries := d.MaxTries
	if tries <= 0 {
		tries = DefaultSmearTries
	}
	if s.Mass < threshold {
		return 0, ErrKinematicallyForbidden
	}
	for i := 0; i < tries; i++ {
		m := BreitWigner(s.Mass, s.Width, rng)
		if m >= threshold && m > 0 {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: no mass above %.5f after %d draws", ErrKinematicallyForbidden, threshold, tries)
}

// BreitWigner samples a Cauchy distribution with location mean and full width gamma.
func BreitWigner(mean, gamma float64, rng Rand) float64 {
	return mean + 0.5*gamma*math.Tan(math.Pi*(rng.Float64()-0.5))
}
