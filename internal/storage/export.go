package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run      RunMetadata `json:"run"`
	Energies []float64   `json:"energies"`
}

// ExportJSON writes a run and its energies as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, energies []float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Energies: energies})
}
