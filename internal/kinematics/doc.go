// Package kinematics provides the relativistic vector algebra used by the
// particle kernel.
//
// All quantities are in natural units (c = 1): momenta and energies in GeV,
// masses in GeV as well.
//
//   - [Vec3]: three-momentum
//   - [FourVector]: energy plus three-momentum
//   - [Boost]: Lorentz boost of a four-vector by a velocity
//   - [TwoBodyMomentum]: rest-frame momentum of a two-body decay
//   - [IsotropicDirection]: unit vector drawn uniformly on the sphere
package kinematics
