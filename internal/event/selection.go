package event

import (
	"fmt"

	"github.com/san-kum/partsim/internal/particle"
)

// Selector decides whether a pair enters a measurement. Pairs with an unbound
// member never match.
type Selector func(a, b particle.Particle) bool

func AnyPair(a, b particle.Particle) bool { return a.Bound() && b.Bound() }

func chargeProduct(a, b particle.Particle) (int, bool) {
	qa, err := a.Charge()
	if err != nil {
		return 0, false
	}
	qb, err := b.Charge()
	if err != nil {
		return 0, false
	}
	return qa * qb, true
}

func OppositeCharge(a, b particle.Particle) bool {
	q, ok := chargeProduct(a, b)
	return ok && q < 0
}

func SameCharge(a, b particle.Particle) bool {
	q, ok := chargeProduct(a, b)
	return ok && q > 0
}

// SpeciesPair matches when one particle's handle is in first and the other's in second.
func SpeciesPair(first, second []int) Selector {
	in := func(set []int, x int) bool {
		for _, v := range set {
			if v == x {
				return true
			}
		}
		return false
	}
	return func(a, b particle.Particle) bool {
		ia, err := a.SpeciesIndex()
		if err != nil {
			return false
		}
		ib, err := b.SpeciesIndex()
		if err != nil {
			return false
		}
		return (in(first, ia) && in(second, ib)) || (in(second, ia) && in(first, ib))
	}
}

// Species resolves names to handles once, for use with SpeciesPair.
func Species(reg *particle.Registry, names ...string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, n := range names {
		idx, err := reg.IndexOf(n)
		if err != nil {
			return nil, fmt.Errorf("selection: %w", err)
		}
		out = append(out, idx)
	}
	return out, nil
}

// PionKaon matches one pion with one kaon by registry handle.
func PionKaon(reg *particle.Registry, pions, kaons []string) (Selector, error) {
	p, err := Species(reg, pions...)
	if err != nil {
		return nil, err
	}
	k, err := Species(reg, kaons...)
	if err != nil {
		return nil, err
	}
	return SpeciesPair(p, k), nil
}

func And(selectors ...Selector) Selector {
	return func(a, b particle.Particle) bool {
		for _, s := range selectors {
			if !s(a, b) {
				return false
			}
		}
		return true
	}
}
