package geometry

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape indicates coordinates that cannot be laid out as N x M x 3.
	ErrShape = errors.New("geometry: coordinates do not form an N x M x 3 batch")

	// ErrAtomCount indicates geometries with differing atom counts.
	ErrAtomCount = errors.New("geometry: inconsistent atom count across geometries")
)

// Batch is an immutable ordered set of geometries sharing one atom count.
type Batch struct {
	coords []float64
	atoms  int
}

func NewBatch(coords []float64, atoms int) (Batch, error) {
	if atoms <= 0 {
		return Batch{}, fmt.Errorf("%w: atom count %d", ErrShape, atoms)
	}
	if len(coords)%(atoms*3) != 0 {
		return Batch{}, fmt.Errorf("%w: %d values for %d atoms", ErrShape, len(coords), atoms)
	}
	return Batch{coords: coords, atoms: atoms}, nil
}

// FromGeometries copies M x 3 matrices into a single batch.
func FromGeometries(geoms []*mat.Dense) (Batch, error) {
	if len(geoms) == 0 {
		return Batch{}, fmt.Errorf("%w: no geometries", ErrShape)
	}
	atoms, cols := geoms[0].Dims()
	if cols != 3 {
		return Batch{}, fmt.Errorf("%w: %d columns", ErrShape, cols)
	}
	coords := make([]float64, 0, len(geoms)*atoms*3)
	for i, g := range geoms {
		r, c := g.Dims()
		if c != 3 {
			return Batch{}, fmt.Errorf("%w: geometry %d has %d columns", ErrShape, i, c)
		}
		if r != atoms {
			return Batch{}, fmt.Errorf("%w: geometry %d has %d atoms, want %d", ErrAtomCount, i, r, atoms)
		}
		for a := 0; a < r; a++ {
			coords = append(coords, g.At(a, 0), g.At(a, 1), g.At(a, 2))
		}
	}
	return NewBatch(coords, atoms)
}

func (b Batch) Len() int {
	if b.atoms == 0 {
		return 0
	}
	return len(b.coords) / (b.atoms * 3)
}

func (b Batch) Atoms() int { return b.atoms }

// Coords returns the underlying flat slice. Callers must not modify it.
func (b Batch) Coords() []float64 { return b.coords }

// Geometry returns a view of geometry i as an M x 3 matrix.
func (b Batch) Geometry(i int) *mat.Dense {
	stride := b.atoms * 3
	return mat.NewDense(b.atoms, 3, b.coords[i*stride:(i+1)*stride:(i+1)*stride])
}

// Slice returns geometries [i, j) without copying.
func (b Batch) Slice(i, j int) Batch {
	stride := b.atoms * 3
	return Batch{coords: b.coords[i*stride : j*stride : j*stride], atoms: b.atoms}
}

func (b Batch) Scale(f float64) Batch {
	out := make([]float64, len(b.coords))
	for i, v := range b.coords {
		out[i] = v * f
	}
	return Batch{coords: out, atoms: b.atoms}
}
