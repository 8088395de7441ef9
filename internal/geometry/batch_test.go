package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/mat"
)

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestNewBatchShape(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		atoms   int
		wantErr bool
	}{
		{"water pair", 18, 3, false},
		{"single atom", 3, 1, false},
		{"empty", 0, 2, false},
		{"ragged", 10, 3, true},
		{"zero atoms", 9, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBatch(seq(tt.n), tt.atoms)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGeometryView(t *testing.T) {
	b, err := NewBatch(seq(18), 3)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 geometries, got %d", b.Len())
	}
	g := b.Geometry(1)
	r, c := g.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("expected 3x3 view, got %dx%d", r, c)
	}
	if g.At(0, 0) != 9 || g.At(2, 2) != 17 {
		t.Errorf("unexpected view contents: %v", mat.Formatted(g))
	}
}

func TestFromGeometries(t *testing.T) {
	a := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := mat.NewDense(2, 3, []float64{7, 8, 9, 10, 11, 12})
	batch, err := FromGeometries([]*mat.Dense{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if batch.Len() != 2 || batch.Atoms() != 2 {
		t.Fatalf("expected 2 geometries of 2 atoms, got %d of %d", batch.Len(), batch.Atoms())
	}
	if batch.Coords()[6] != 7 {
		t.Errorf("expected second geometry to start at 7, got %f", batch.Coords()[6])
	}

	c := mat.NewDense(3, 3, nil)
	if _, err := FromGeometries([]*mat.Dense{a, c}); err == nil {
		t.Error("expected atom count error")
	}
}

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		n, k int
		want []int
	}{
		{10, 3, []int{3, 3, 4}},
		{11, 3, []int{3, 4, 4}},
		{4, 2, []int{2, 2}},
		{2, 4, []int{0, 0, 1, 1}},
		{5, 1, []int{5}},
		{0, 3, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		b, _ := NewBatch(seq(tt.n*6), 2)
		chunks := Split(b, tt.k)
		if len(chunks) != tt.k {
			t.Fatalf("n=%d k=%d: expected %d chunks, got %d", tt.n, tt.k, tt.k, len(chunks))
		}
		for i, c := range chunks {
			if c.Len() != tt.want[i] {
				t.Errorf("n=%d k=%d: chunk %d has %d, want %d", tt.n, tt.k, i, c.Len(), tt.want[i])
			}
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("chunks rejoin to the input in order", prop.ForAll(
		func(n, atoms, k int) bool {
			b, err := Random(rand.New(rand.NewSource(int64(n*31+k))), n, atoms, 1.0)
			if err != nil {
				return false
			}
			chunks := Split(b, k)
			if len(chunks) != k {
				return false
			}
			parts := make([][]float64, len(chunks))
			for i, c := range chunks {
				parts[i] = c.Coords()
			}
			joined := Concat(parts)
			if len(joined) != len(b.Coords()) {
				return false
			}
			for i := range joined {
				if joined[i] != b.Coords()[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 200),
		gen.IntRange(1, 6),
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}

func TestScaleCopies(t *testing.T) {
	b, _ := NewBatch([]float64{1, 2, 3}, 1)
	s := b.Scale(AngstromToBohr)
	if b.Coords()[0] != 1 {
		t.Error("scale modified the original batch")
	}
	want := b.Coords()[2] * AngstromToBohr
	if got := s.Coords()[2]; math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
}
