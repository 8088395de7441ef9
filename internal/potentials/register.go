package potentials

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/potential"
)

// FunctionName is the callable every built-in module exposes.
const FunctionName = "potential"

var ErrAtoms = errors.New("potentials: unsupported atom count")

// Model is a single-geometry energy function.
type Model interface {
	Energy(g *mat.Dense) float64
	CheckAtoms(atoms int) error
	GetParams() map[string]float64
}

var builtins = map[string]func() Model{
	"harmonic": func() Model { return NewHarmonic() },
	"morse":    func() Model { return NewMorse() },
	"lj":       func() Model { return NewLennardJones() },
	"water":    func() Model { return NewWater() },
}

func Register(r *potential.Registry) {
	for name, newModel := range builtins {
		r.MustRegister(name, FunctionName, factory(newModel))
	}
}

// Defaults returns the default parameters of a built-in module.
func Defaults(module string) (map[string]float64, bool) {
	newModel, ok := builtins[module]
	if !ok {
		return nil, false
	}
	return newModel().GetParams(), true
}

// NewRegistry returns a registry holding the built-in modules.
func NewRegistry() *potential.Registry {
	r := potential.NewRegistry()
	Register(r)
	return r
}

func factory(defaults func() Model) potential.Factory {
	return func(src potential.Source) (potential.Potential, error) {
		m := defaults()
		if err := potential.DecodeParams(src, m); err != nil {
			return nil, err
		}
		return AsPotential(m), nil
	}
}

// AsPotential evaluates m geometry by geometry.
func AsPotential(m Model) potential.Potential {
	return potential.Func(func(ctx context.Context, b geometry.Batch) ([]float64, error) {
		if b.Len() == 0 {
			return []float64{}, nil
		}
		if err := m.CheckAtoms(b.Atoms()); err != nil {
			return nil, err
		}
		out := make([]float64, b.Len())
		for i := range out {
			if i%256 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			out[i] = m.Energy(b.Geometry(i))
		}
		return out, nil
	})
}

func atLeast(n int) func(int) error {
	return func(atoms int) error {
		if atoms < n {
			return fmt.Errorf("%w: need at least %d atoms, got %d", ErrAtoms, n, atoms)
		}
		return nil
	}
}
