package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/potman/internal/potential"
)

func testSource() potential.Source {
	return potential.Source{Function: "potential", File: "callPartridgePot.py", Directory: "/opt/pes"}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	energies := []float64{0.01, -0.002, 0.5}
	runID, err := st.Save(RunMetadata{Source: testSource(), Atoms: 3, Workers: 2, Elapsed: 0.25}, energies)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "callPartridgePot_") {
		t.Errorf("expected run id prefixed by module, got %s", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Source.File != "callPartridgePot.py" {
		t.Errorf("expected source file to round trip, got %s", meta.Source.File)
	}
	if meta.Geometries != 3 || meta.Atoms != 3 || meta.Workers != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Stats["min"] != -0.002 || meta.Stats["max"] != 0.5 {
		t.Errorf("unexpected stats %v", meta.Stats)
	}

	got, err := st.LoadEnergies(runID)
	if err != nil {
		t.Fatalf("load energies failed: %v", err)
	}
	if len(got) != len(energies) {
		t.Fatalf("expected %d energies, got %d", len(energies), len(got))
	}
	for i := range energies {
		if got[i] != energies[i] {
			t.Errorf("energy %d: expected %g, got %g", i, energies[i], got[i])
		}
	}
}

func TestStoreUniqueIDs(t *testing.T) {
	st := New(t.TempDir())
	a, err := st.Save(RunMetadata{Source: testSource()}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Save(RunMetadata{Source: testSource()}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("expected distinct run ids, got %s twice", a)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(RunMetadata{Source: testSource()}, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadEnergies("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreSaveFailureLeavesNoRun(t *testing.T) {
	base := t.TempDir()
	st := New(base)
	meta := RunMetadata{Source: potential.Source{File: "morse", Function: "potential"}, Elapsed: math.NaN()}
	if _, err := st.Save(meta, []float64{1, 2}); err == nil {
		t.Fatal("expected metadata encoding to fail")
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected failed run to be removed, found %d entries", len(entries))
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		energies []float64
		keys     int
	}{
		{"empty", nil, 0},
		{"single", []float64{2}, 3},
		{"many", []float64{1, 2, 3}, 4},
		{"nan", []float64{1, math.NaN()}, 2},
	}
	for _, tt := range tests {
		if got := Summarize(tt.energies); len(got) != tt.keys {
			t.Errorf("%s: expected %d keys, got %v", tt.name, tt.keys, got)
		}
	}
	if s := Summarize([]float64{1, 2, 3}); s["mean"] != 2 || s["std"] != 1 {
		t.Errorf("expected mean 2 std 1, got %v", s)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{ID: "lj_1_abcdef01", Source: testSource()}
	if err := ExportJSON(&buf, meta, []float64{0.1, 0.2}); err != nil {
		t.Fatal(err)
	}
	var out ExportData
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Run.ID != meta.ID || len(out.Energies) != 2 {
		t.Errorf("unexpected export %+v", out)
	}
}
