package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/potential"
)

const (
	metadataFile = "metadata.json"
	energiesFile = "energies.csv"
)

var ErrRunNotFound = errors.New("run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Source     potential.Source   `json:"source"`
	Timestamp  time.Time          `json:"timestamp"`
	Geometries int                `json:"geometries"`
	Atoms      int                `json:"atoms"`
	Workers    int                `json:"workers"`
	Elapsed    float64            `json:"elapsed_seconds"`
	Input      string             `json:"input,omitempty"`
	Stats      map[string]float64 `json:"stats"`
}

// Save writes meta and the energies (hartree) under a new run id and returns
// the id. ID, Timestamp and Stats are filled in by Save.
func (s *Store) Save(meta RunMetadata, energies []float64) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%s", meta.Source.Module(), now.Unix(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Geometries = len(energies)
	meta.Stats = Summarize(energies)

	if err := writeRun(runDir, meta, energies); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, energies []float64) error {
	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		metaFile.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := metaFile.Close(); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, energiesFile))
	if err != nil {
		return err
	}
	if err := writeEnergies(csvFile, energies); err != nil {
		csvFile.Close()
		return fmt.Errorf("write energies: %w", err)
	}
	return csvFile.Close()
}

func writeEnergies(f *os.File, energies []float64) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "energy_hartree", "energy_cm-1"}); err != nil {
		return err
	}
	for i, e := range energies {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(e, 'g', 17, 64),
			strconv.FormatFloat(e*geometry.HartreeToWavenumber, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns saved runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadEnergies returns the saved energies in hartree, in geometry order.
func (s *Store) LoadEnergies(runID string) ([]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, energiesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []float64{}, nil
	}

	energies := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		e, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		energies = append(energies, e)
	}
	return energies, nil
}
