package potentials

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/potential"
)

func dimer(r float64) *mat.Dense {
	return mat.NewDense(2, 3, []float64{0, 0, 0, 0, 0, r})
}

func TestHarmonicEnergy(t *testing.T) {
	h := &Harmonic{K: 2}
	g := mat.NewDense(2, 3, []float64{1, 0, 0, 0, 2, 0})
	if got := h.Energy(g); got != 5 {
		t.Errorf("expected 5, got %f", got)
	}
}

func TestMorseMinimum(t *testing.T) {
	m := NewMorse()
	if e := m.Energy(dimer(m.Re)); math.Abs(e) > 1e-12 {
		t.Errorf("expected zero at re, got %e", e)
	}
	if m.Energy(dimer(m.Re*0.8)) <= 0 || m.Energy(dimer(m.Re*1.2)) <= 0 {
		t.Error("expected positive energy away from re")
	}
	if e := m.Energy(dimer(100)); math.Abs(e-m.De) > 1e-9 {
		t.Errorf("expected dissociation limit %f, got %f", m.De, e)
	}
}

func TestLennardJonesMinimum(t *testing.T) {
	l := NewLennardJones()
	if e := l.Energy(dimer(l.Minimum())); math.Abs(e+l.Epsilon) > 1e-12 {
		t.Errorf("expected -epsilon at minimum, got %e", e)
	}
	if e := l.Energy(dimer(l.Sigma)); math.Abs(e) > 1e-15 {
		t.Errorf("expected zero at sigma, got %e", e)
	}
}

func TestWaterEquilibrium(t *testing.T) {
	w := NewWater()
	half := w.Thetae / 2
	g := mat.NewDense(3, 3, []float64{
		w.Re * math.Sin(half), w.Re * math.Cos(half), 0,
		-w.Re * math.Sin(half), w.Re * math.Cos(half), 0,
		0, 0, 0,
	})
	r1, r2, theta := w.Internals(g)
	if math.Abs(r1-w.Re) > 1e-12 || math.Abs(r2-w.Re) > 1e-12 || math.Abs(theta-w.Thetae) > 1e-12 {
		t.Errorf("unexpected internals %f %f %f", r1, r2, theta)
	}
	if e := w.Energy(g); math.Abs(e) > 1e-20 {
		t.Errorf("expected zero at equilibrium, got %e", e)
	}
}

func TestWaterRejectsWrongAtomCount(t *testing.T) {
	pot := AsPotential(NewWater())
	b, _ := geometry.NewBatch(make([]float64, 12), 2)
	_, err := pot.Energies(context.Background(), b)
	if !errors.Is(err, ErrAtoms) {
		t.Errorf("expected ErrAtoms, got %v", err)
	}
}

func TestRegisteredModules(t *testing.T) {
	reg := NewRegistry()
	want := []string{"harmonic", "lj", "morse", "water"}
	got := reg.Modules()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestResolveWithParamFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "harmonic.yaml"), []byte("k: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := potential.NewResolver(NewRegistry())
	pot, err := r.Resolve(context.Background(), potential.Source{
		Function:  FunctionName,
		File:      "harmonic",
		Directory: dir,
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	b, _ := geometry.NewBatch([]float64{1, 0, 0, 0, 1, 0}, 1)
	got, err := pot.Energies(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 2 || got[1] != 2 {
		t.Errorf("expected [2 2], got %v", got)
	}
}

func TestResolveRejectsBadParams(t *testing.T) {
	r := potential.NewResolver(NewRegistry())
	_, err := r.Resolve(context.Background(), potential.Source{
		Function:  FunctionName,
		File:      "morse",
		Directory: t.TempDir(),
		Params:    map[string]any{"depth": 1.0},
	})
	var rerr *potential.ResolutionError
	if !errors.As(err, &rerr) {
		t.Errorf("expected ResolutionError, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	p, ok := Defaults("morse")
	if !ok {
		t.Fatal("expected morse defaults")
	}
	if p["re"] != NewMorse().Re {
		t.Errorf("expected re %f, got %f", NewMorse().Re, p["re"])
	}
	if _, ok := Defaults("ghost"); ok {
		t.Error("expected no defaults for unknown module")
	}
}
