package kinematics

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Norm2() float64 { return v.Dot(v) }

// Norm is scaled through Hypot so it stays finite wherever Norm2 overflows.
func (v Vec3) Norm() float64 { return math.Hypot(math.Hypot(v.X, v.Y), v.Z) }

// Perp is the magnitude in the plane transverse to the z (beam) axis.
func (v Vec3) Perp() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// FourVector is (E, p) with the (+,-,-,-) metric.
type FourVector struct {
	E float64
	P Vec3
}

// OnShell builds the four-vector of a particle of mass m carrying momentum p.
func OnShell(p Vec3, m float64) FourVector {
	return FourVector{E: math.Hypot(p.Norm(), m), P: p}
}

func (f FourVector) Add(o FourVector) FourVector {
	return FourVector{E: f.E + o.E, P: f.P.Add(o.P)}
}

// Mass2 may be slightly negative for nearly massless systems because of rounding.
func (f FourVector) Mass2() float64 {
	n := f.P.Norm()
	return (f.E - n) * (f.E + n)
}

// Mass returns the invariant mass, clamped to zero when rounding drives the
// radicand negative.
func (f FourVector) Mass() float64 {
	m2 := f.Mass2()
	if m2 <= 0 || math.IsNaN(m2) {
		return 0
	}
	return math.Sqrt(m2)
}

// InvariantMass of the two-particle system a+b.
func InvariantMass(a, b FourVector) float64 {
	return a.Add(b).Mass()
}
