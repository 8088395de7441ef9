// Package potentials provides analytic potential-energy surfaces that are
// compiled into potman and registered by [Register]:
//
//   - [Harmonic]: isotropic harmonic well about the origin
//   - [Morse]: pairwise Morse oscillators (H2 defaults)
//   - [LennardJones]: pairwise 12-6 potential (argon defaults)
//   - [Water]: local-mode harmonic H2O, atoms ordered H, H, O
//
// All models take coordinates in bohr and return hartree. Parameters are read
// from <module>.yaml in the potential directory and from inline params; see
// [potential.DecodeParams].
package potentials
