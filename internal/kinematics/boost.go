package kinematics

// Boost transforms v from a frame at rest into one in which that rest frame
// moves with velocity beta. gamma must be 1/sqrt(1-|beta|^2); it is passed in
// so callers that know it exactly (E/M) avoid the cancellation in 1-beta^2.
func Boost(v FourVector, beta Vec3, gamma float64) FourVector {
	b2 := beta.Norm2()
	if b2 == 0 {
		return v
	}
	bp := beta.Dot(v.P)
	g2 := (gamma - 1) / b2

	return FourVector{
		E: gamma * (v.E + bp),
		P: v.P.Add(beta.Scale(g2*bp + gamma*v.E)),
	}
}

// BoostFromRest moves v out of the rest frame of a particle of the given mass
// whose lab four-momentum is parent.
func BoostFromRest(v, parent FourVector, mass float64) FourVector {
	beta := parent.P.Scale(1 / parent.E)
	gamma := parent.E / mass
	return Boost(v, beta, gamma)
}
