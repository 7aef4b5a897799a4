package kinematics

import "math"

// Rand is the subset of *math/rand.Rand the kernel draws from. Each goroutine
// must own its generator.
type Rand interface {
	Float64() float64
}

// TwoBodyMomentum is the common momentum magnitude of the products of M -> mA + mB
// in the rest frame of M. ok is false when mA + mB > M or M <= 0.
func TwoBodyMomentum(m, mA, mB float64) (q float64, ok bool) {
	if m <= 0 || mA+mB > m {
		return 0, false
	}
	sum := mA + mB
	diff := mA - mB
	r := (m*m - sum*sum) * (m*m - diff*diff)
	if r <= 0 {
		// at threshold the products are produced at rest
		return 0, true
	}
	return math.Sqrt(r) / (2 * m), true
}

// IsotropicDirection draws a unit vector uniformly on the sphere:
// cos(theta) ~ U(-1, 1), phi ~ U(0, 2pi).
func IsotropicDirection(rng Rand) Vec3 {
	cosTheta := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	sinPhi, cosPhi := math.Sincos(phi)
	return Vec3{sinTheta * cosPhi, sinTheta * sinPhi, cosTheta}
}

// FromSpherical converts magnitude and polar/azimuthal angles to Cartesian components.
func FromSpherical(p, theta, phi float64) Vec3 {
	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)
	return Vec3{p * sinTheta * cosPhi, p * sinTheta * sinPhi, p * cosTheta}
}
