package potentials

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Harmonic is V = k/2 * sum |r_i|^2.
type Harmonic struct {
	K float64 `yaml:"k"`
}

func NewHarmonic() *Harmonic {
	return &Harmonic{K: 1.0}
}

func (h *Harmonic) CheckAtoms(atoms int) error { return atLeast(1)(atoms) }

func (h *Harmonic) Energy(g *mat.Dense) float64 {
	r, _ := g.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		row := g.RawRowView(i)
		sum += floats.Dot(row, row)
	}
	return 0.5 * h.K * sum
}

func (h *Harmonic) GetParams() map[string]float64 {
	return map[string]float64{"k": h.K}
}
