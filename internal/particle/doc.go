// Package particle is the physics kernel of partsim: a species catalog, a
// particle value type and the two-body decay engine.
//
//   - [Registry]: append-only catalog of [Species], indexed in registration order
//   - [Particle]: species handle plus three-momentum, deriving energy and masses
//   - [DecayTwoBody] / [Decayer]: isotropic two-body decay boosted to the lab frame
//
// # Example
//
//	reg := particle.NewRegistry(particle.DefaultMaxSpecies)
//	reg.Add("pi+", 0.13957, 1, 0)
//	reg.Add("K-", 0.49367, -1, 0)
//	kstar, _ := reg.Add("K*", 0.89166, 0, 0.050)
//
//	p := particle.New(reg)
//	p.SetSpeciesIndex(kstar)
//	p.SetMomentum(0.3, 0.1, 1.2)
//	a, b, err := particle.DecayTwoBody(p, "pi+", "K-", rng)
//
// # Thread Safety
//
// A [Registry] has no internal locking. Populate it before any goroutine reads
// from it and never add to it afterwards; concurrent reads are then safe.
// [Particle] values must be owned by one goroutine at a time, and every
// goroutine that decays particles needs its own random generator.
package particle
