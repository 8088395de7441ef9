package geometry

import "math/rand"

// Random returns n geometries of the given atom count with coordinates drawn
// uniformly from [0, scale).
func Random(rng *rand.Rand, n, atoms int, scale float64) (Batch, error) {
	coords := make([]float64, n*atoms*3)
	for i := range coords {
		coords[i] = rng.Float64() * scale
	}
	return NewBatch(coords, atoms)
}
