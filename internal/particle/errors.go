package particle

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName indicates a species name that is already registered.
	ErrDuplicateName = errors.New("particle: duplicate species name")

	// ErrCapacityExceeded indicates the registry already holds its maximum number of species.
	ErrCapacityExceeded = errors.New("particle: species registry full")

	// ErrInvalidValue indicates a negative mass or width, or a non-finite momentum.
	ErrInvalidValue = errors.New("particle: invalid value")

	// ErrUnknownSpecies indicates a name or handle that is not in the registry.
	ErrUnknownSpecies = errors.New("particle: unknown species")

	// ErrIndexOutOfRange indicates a registry index that was never assigned.
	ErrIndexOutOfRange = errors.New("particle: species index out of range")

	// ErrUnboundSpecies indicates a species-dependent query on a particle with no species.
	ErrUnboundSpecies = errors.New("particle: species not set")

	// ErrKinematicallyForbidden indicates product masses exceeding the parent mass.
	ErrKinematicallyForbidden = errors.New("particle: decay kinematically forbidden")
)

// DecayError reports a decay that could not take place.
type DecayError struct {
	Parent     string
	ProductA   string
	ProductB   string
	ParentMass float64
	MassA      float64
	MassB      float64
	Wrapped    error
}

func (e *DecayError) Error() string {
	return fmt.Sprintf("%v: %s (%.5f) -> %s (%.5f) + %s (%.5f)",
		e.Wrapped, e.Parent, e.ParentMass, e.ProductA, e.MassA, e.ProductB, e.MassB)
}

func (e *DecayError) Unwrap() error {
	return e.Wrapped
}
