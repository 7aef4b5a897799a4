package particle

import (
	"errors"
	"math"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(DefaultMaxSpecies)
	for _, s := range []Species{
		{Name: "pi+", Mass: 0.13957, Charge: 1},
		{Name: "K-", Mass: 0.49367, Charge: -1},
		{Name: "gamma", Mass: 0},
		{Name: "K*", Mass: 0.89166, Width: 0.05},
	} {
		if _, err := reg.AddSpecies(s); err != nil {
			t.Fatalf("add %s: %v", s.Name, err)
		}
	}
	return reg
}

func TestParticle_Unbound(t *testing.T) {
	p := New(testRegistry(t))

	if p.Bound() {
		t.Fatal("new particle should be unbound")
	}
	if _, err := p.Mass(); !errors.Is(err, ErrUnboundSpecies) {
		t.Errorf("Mass: expected ErrUnboundSpecies, got %v", err)
	}
	if _, err := p.Charge(); !errors.Is(err, ErrUnboundSpecies) {
		t.Errorf("Charge: expected ErrUnboundSpecies, got %v", err)
	}
	if _, err := p.Energy(); !errors.Is(err, ErrUnboundSpecies) {
		t.Errorf("Energy: expected ErrUnboundSpecies, got %v", err)
	}
	if _, err := p.SpeciesIndex(); !errors.Is(err, ErrUnboundSpecies) {
		t.Errorf("SpeciesIndex: expected ErrUnboundSpecies, got %v", err)
	}
	if _, err := p.InvariantMass(p); !errors.Is(err, ErrUnboundSpecies) {
		t.Errorf("InvariantMass: expected ErrUnboundSpecies, got %v", err)
	}

	// momentum-only queries work without a species
	if err := p.SetMomentum(3, 4, 0); err != nil {
		t.Fatalf("SetMomentum: %v", err)
	}
	if p.P() != 5 || p.Pt() != 5 {
		t.Errorf("P=%v Pt=%v, want 5", p.P(), p.Pt())
	}
}

func TestParticle_SetSpecies(t *testing.T) {
	reg := testRegistry(t)
	p := New(reg)

	if err := p.SetSpecies("pi0"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
	if p.Bound() {
		t.Error("failed SetSpecies bound the particle")
	}

	if err := p.SetSpecies("K-"); err != nil {
		t.Fatalf("SetSpecies: %v", err)
	}
	idx, _ := p.SpeciesIndex()
	_, want, _ := reg.Lookup("K-")
	if idx != want {
		t.Errorf("index = %d, want %d", idx, want)
	}
	if q, _ := p.Charge(); q != -1 {
		t.Errorf("charge = %d, want -1", q)
	}
	if m, _ := p.Mass(); m != 0.49367 {
		t.Errorf("mass = %v, want 0.49367", m)
	}
}

func TestParticle_SetSpeciesIndex(t *testing.T) {
	p := New(testRegistry(t))

	err := p.SetSpeciesIndex(99)
	if !errors.Is(err, ErrUnknownSpecies) || !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected unknown/out-of-range, got %v", err)
	}

	if err := p.SetSpeciesIndex(0); err != nil {
		t.Fatalf("SetSpeciesIndex(0): %v", err)
	}
	s, _ := p.Species()
	if s.Name != "pi+" {
		t.Errorf("species = %s, want pi+", s.Name)
	}
}

func TestParticle_NoRegistry(t *testing.T) {
	var p Particle
	if err := p.SetSpecies("pi+"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
	if err := p.SetSpeciesIndex(0); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
}

func TestParticle_SetMomentumRejectsNonFinite(t *testing.T) {
	p := New(testRegistry(t))
	p.SetMomentum(1, 2, 3)

	tests := []struct {
		name       string
		px, py, pz float64
	}{
		{"NaN", math.NaN(), 0, 0},
		{"+Inf", 0, math.Inf(1), 0},
		{"-Inf", 0, 0, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.SetMomentum(tt.px, tt.py, tt.pz); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("expected ErrInvalidValue, got %v", err)
			}
			if m := p.Momentum(); m.X != 1 || m.Y != 2 || m.Z != 3 {
				t.Errorf("momentum changed on error: %v", m)
			}
		})
	}
}

func TestParticle_DerivedQuantities(t *testing.T) {
	p, err := NewWith(testRegistry(t), "pi+", 1, 2, 2)
	if err != nil {
		t.Fatalf("NewWith: %v", err)
	}

	if got := p.P(); math.Abs(got-3) > 1e-12 {
		t.Errorf("P = %v, want 3", got)
	}
	if got := p.Pt(); math.Abs(got-math.Sqrt(5)) > 1e-12 {
		t.Errorf("Pt = %v, want sqrt(5)", got)
	}

	e, err := p.Energy()
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	want := math.Sqrt(9 + 0.13957*0.13957)
	if math.Abs(e-want) > 1e-12 {
		t.Errorf("Energy = %v, want %v", e, want)
	}
}

func TestParticle_NewWithErrors(t *testing.T) {
	reg := testRegistry(t)
	if _, err := NewWith(reg, "nope", 0, 0, 0); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
	if _, err := NewWith(reg, "pi+", math.NaN(), 0, 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestParticle_InvariantMassAtRest(t *testing.T) {
	reg := testRegistry(t)
	a, _ := NewWith(reg, "K-", 0, 0, 0)
	b, _ := NewWith(reg, "K-", 0, 0, 0)

	m, err := a.InvariantMass(b)
	if err != nil {
		t.Fatalf("InvariantMass: %v", err)
	}
	if math.Abs(m-2*0.49367) > 1e-12 {
		t.Errorf("InvariantMass = %v, want %v", m, 2*0.49367)
	}
}

func TestParticle_InvariantMassSymmetric(t *testing.T) {
	reg := testRegistry(t)
	a, _ := NewWith(reg, "pi+", 0.3, -1.2, 0.7)
	b, _ := NewWith(reg, "K-", -0.4, 0.5, 2.1)

	ab, _ := a.InvariantMass(b)
	ba, _ := b.InvariantMass(a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("asymmetric invariant mass: %v vs %v", ab, ba)
	}
}

func TestParticle_InvariantMassClamped(t *testing.T) {
	reg := testRegistry(t)
	// collinear massless pair: radicand is zero up to rounding
	for _, k := range []float64{0.1, 0.3, 1.7, 12.5, 1e3} {
		a, _ := NewWith(reg, "gamma", k*0.3, k*0.1, k*0.7)
		b, _ := NewWith(reg, "gamma", k*0.6, k*0.2, k*1.4)

		m, err := a.InvariantMass(b)
		if err != nil {
			t.Fatalf("InvariantMass: %v", err)
		}
		if math.IsNaN(m) || m < 0 {
			t.Errorf("k=%v: invariant mass %v is negative or NaN", k, m)
		}
		if m > 1e-6*k {
			t.Errorf("k=%v: collinear photons gave mass %v", k, m)
		}
	}
}

func TestParticle_ValueSemantics(t *testing.T) {
	reg := testRegistry(t)
	a, _ := NewWith(reg, "pi+", 1, 0, 0)
	b := a
	b.SetMomentum(0, 0, 1)
	b.SetSpecies("K-")

	if a.Momentum().X != 1 {
		t.Error("copy shares momentum with original")
	}
	if s, _ := a.Species(); s.Name != "pi+" {
		t.Error("copy shares species with original")
	}
}
