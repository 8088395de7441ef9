// Package geometry provides batches of molecular geometries.
//
// A [Batch] holds N geometries of M atoms each as one flat row-major slice
// (N x M x 3), so sub-batches are zero-copy:
//
//   - [Batch.Geometry]: gonum M x 3 view of one geometry
//   - [Batch.Slice]: contiguous sub-batch
//   - [Split]: partition into k contiguous chunks
//   - [Concat]: rejoin per-chunk energies in chunk order
//
// # Units
//
// Potentials work in atomic units (bohr, hartree). XYZ files are usually in
// angstrom; convert with [Batch.Scale] and [AngstromToBohr].
package geometry
