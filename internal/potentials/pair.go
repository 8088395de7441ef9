package potentials

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func sumPairs(g *mat.Dense, pair func(r float64) float64) float64 {
	n, _ := g.Dims()
	sum := 0.0
	for i := 0; i < n; i++ {
		ri := g.RawRowView(i)
		for j := i + 1; j < n; j++ {
			sum += pair(floats.Distance(ri, g.RawRowView(j), 2))
		}
	}
	return sum
}

// Morse is a sum of pairwise Morse oscillators,
// V = sum De * (1 - exp(-a (r - re)))^2. Defaults describe H2.
type Morse struct {
	De float64 `yaml:"de"`
	A  float64 `yaml:"a"`
	Re float64 `yaml:"re"`
}

func NewMorse() *Morse {
	return &Morse{De: 0.1744, A: 1.02764, Re: 1.40201}
}

func (m *Morse) CheckAtoms(atoms int) error { return atLeast(2)(atoms) }

func (m *Morse) Energy(g *mat.Dense) float64 {
	return sumPairs(g, func(r float64) float64 {
		x := 1 - math.Exp(-m.A*(r-m.Re))
		return m.De * x * x
	})
}

func (m *Morse) GetParams() map[string]float64 {
	return map[string]float64{"de": m.De, "a": m.A, "re": m.Re}
}

// LennardJones is a sum of pairwise 12-6 terms,
// V = sum 4 eps ((sigma/r)^12 - (sigma/r)^6). Defaults describe argon.
type LennardJones struct {
	Epsilon float64 `yaml:"epsilon"`
	Sigma   float64 `yaml:"sigma"`
}

func NewLennardJones() *LennardJones {
	return &LennardJones{Epsilon: 3.7935e-4, Sigma: 6.4302}
}

func (l *LennardJones) CheckAtoms(atoms int) error { return atLeast(2)(atoms) }

func (l *LennardJones) Energy(g *mat.Dense) float64 {
	return sumPairs(g, func(r float64) float64 {
		s6 := math.Pow(l.Sigma/r, 6)
		return 4 * l.Epsilon * (s6*s6 - s6)
	})
}

// Minimum returns the pair distance of lowest energy, 2^(1/6) sigma.
func (l *LennardJones) Minimum() float64 {
	return math.Pow(2, 1.0/6.0) * l.Sigma
}

func (l *LennardJones) GetParams() map[string]float64 {
	return map[string]float64{"epsilon": l.Epsilon, "sigma": l.Sigma}
}
