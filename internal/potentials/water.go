package potentials

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Water is a local-mode harmonic model of H2O with atoms ordered H, H, O:
// V = kr/2 (r1-re)^2 + kr/2 (r2-re)^2 + ktheta/2 (theta-thetae)^2.
type Water struct {
	Kr     float64 `yaml:"kr"`
	Ktheta float64 `yaml:"ktheta"`
	Re     float64 `yaml:"re"`
	Thetae float64 `yaml:"thetae"`
}

func NewWater() *Water {
	return &Water{
		Kr:     0.5339,
		Ktheta: 0.1625,
		Re:     1.8099,
		Thetae: 104.52 * math.Pi / 180,
	}
}

func (w *Water) CheckAtoms(atoms int) error {
	if atoms != 3 {
		return fmt.Errorf("%w: water needs 3 atoms (H, H, O), got %d", ErrAtoms, atoms)
	}
	return nil
}

// Internals returns the two OH distances and the HOH angle.
func (w *Water) Internals(g *mat.Dense) (r1, r2, theta float64) {
	h1, h2, o := g.RawRowView(0), g.RawRowView(1), g.RawRowView(2)
	v1 := make([]float64, 3)
	v2 := make([]float64, 3)
	floats.SubTo(v1, h1, o)
	floats.SubTo(v2, h2, o)
	r1 = floats.Norm(v1, 2)
	r2 = floats.Norm(v2, 2)
	cos := floats.Dot(v1, v2) / (r1 * r2)
	theta = math.Acos(math.Max(-1, math.Min(1, cos)))
	return r1, r2, theta
}

func (w *Water) Energy(g *mat.Dense) float64 {
	r1, r2, theta := w.Internals(g)
	d1, d2, dt := r1-w.Re, r2-w.Re, theta-w.Thetae
	return 0.5*w.Kr*(d1*d1+d2*d2) + 0.5*w.Ktheta*dt*dt
}

func (w *Water) GetParams() map[string]float64 {
	return map[string]float64{"kr": w.Kr, "ktheta": w.Ktheta, "re": w.Re, "thetae": w.Thetae}
}
