package particle

import (
	"fmt"
	"math"
)

// DefaultMaxSpecies bounds the catalog when NewRegistry is given no limit.
const DefaultMaxSpecies = 10

// Registry is the species catalog. Entries are append-only and each keeps the
// index it was assigned at registration for the life of the registry.
type Registry struct {
	max     int
	species []Species
	byName  map[string]int
}

func NewRegistry(maxSpecies int) *Registry {
	if maxSpecies <= 0 {
		maxSpecies = DefaultMaxSpecies
	}
	return &Registry{
		max:     maxSpecies,
		species: make([]Species, 0, maxSpecies),
		byName:  make(map[string]int, maxSpecies),
	}
}

// Add registers a species and returns its index. On error the registry is unchanged.
func (r *Registry) Add(name string, mass float64, charge int, width float64) (int, error) {
	return r.AddSpecies(Species{Name: name, Mass: mass, Charge: charge, Width: width})
}

func (r *Registry) AddSpecies(s Species) (int, error) {
	if _, ok := r.byName[s.Name]; ok {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	if len(r.species) >= r.max {
		return -1, fmt.Errorf("%w: %d species", ErrCapacityExceeded, r.max)
	}
	if err := validateSpecies(s); err != nil {
		return -1, err
	}

	idx := len(r.species)
	r.species = append(r.species, s)
	r.byName[s.Name] = idx
	return idx, nil
}

func validateSpecies(s Species) error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: empty species name", ErrInvalidValue)
	case s.Mass < 0 || math.IsNaN(s.Mass) || math.IsInf(s.Mass, 0):
		return fmt.Errorf("%w: mass %v for %q", ErrInvalidValue, s.Mass, s.Name)
	case s.Width < 0 || math.IsNaN(s.Width) || math.IsInf(s.Width, 0):
		return fmt.Errorf("%w: width %v for %q", ErrInvalidValue, s.Width, s.Name)
	}
	return nil
}

// Lookup returns the species registered under name and its index.
func (r *Registry) Lookup(name string) (Species, int, error) {
	idx, ok := r.byName[name]
	if !ok {
		return Species{}, -1, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return r.species[idx], idx, nil
}

// IndexOf resolves a name to its stable handle.
func (r *Registry) IndexOf(name string) (int, error) {
	_, idx, err := r.Lookup(name)
	return idx, err
}

func (r *Registry) At(i int) (Species, error) {
	if i < 0 || i >= len(r.species) {
		return Species{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(r.species))
	}
	return r.species[i], nil
}

func (r *Registry) Count() int { return len(r.species) }

func (r *Registry) Cap() int { return r.max }

// All returns a copy of the catalog in index order.
func (r *Registry) All() []Species {
	out := make([]Species, len(r.species))
	copy(out, r.species)
	return out
}
