package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/potman/internal/config"
	"github.com/san-kum/potman/internal/dispatch"
	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/storage"
	"github.com/san-kum/potman/internal/viz"
)

func evalBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	input := ""
	if len(args) == 1 {
		input = args[0]
	}
	b, symbols, err := loadBatch(cfg, input)
	if err != nil {
		return err
	}

	collector, stopMetrics, err := startMetrics(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopMetrics()

	d, err := dispatch.Open(ctx, newResolver(cfg, log), cfg.Potential,
		dispatch.WithWorkers(cfg.Pool),
		dispatch.WithMaxWorkers(cfg.MaxWorkers),
		dispatch.WithLogger(log),
		dispatch.WithMetrics(collector),
	)
	if err != nil {
		return err
	}
	defer d.Close()

	energies, elapsed, err := d.EvaluateTimed(ctx, b)
	if err != nil {
		return err
	}

	meta := storage.RunMetadata{
		Source:     cfg.Potential,
		Geometries: len(energies),
		Atoms:      b.Atoms(),
		Workers:    d.Workers(),
		Elapsed:    elapsed.Seconds(),
		Input:      input,
		Stats:      storage.Summarize(energies),
	}

	if writeXYZ != "" {
		if err := writeGeometries(writeXYZ, b, symbols, energies); err != nil {
			return err
		}
		log.Infof("wrote %d geometries to %s", b.Len(), writeXYZ)
	}
	if chartFile != "" {
		title := fmt.Sprintf("%s (%d geometries)", cfg.Potential.String(), len(energies))
		if err := viz.SaveEnergyChart(chartFile, title, cfg.Units, convertAll(cfg, energies)); err != nil {
			return err
		}
		log.Infof("wrote energy chart to %s", chartFile)
	}
	if save {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, energies)
		if err != nil {
			return err
		}
		meta.ID = runID
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return storage.ExportJSON(out, meta, energies)
	}

	if err := printEnergies(out, energies, showRows); err != nil {
		return err
	}
	summary := viz.Summary{
		Title:      "evaluation",
		Source:     cfg.Potential.String(),
		Geometries: len(energies),
		Atoms:      b.Atoms(),
		Workers:    d.Workers(),
		Elapsed:    elapsed,
		Timed:      timing,
		Units:      cfg.Units,
		Stats:      convertStats(cfg, meta.Stats),
		Energies:   energies,
	}
	fmt.Fprintln(out, summary.Render())
	if meta.ID != "" {
		fmt.Fprintf(out, "run id: %s\n", meta.ID)
	}
	if plot {
		fmt.Fprintln(out, viz.EnergyPlot(convertAll(cfg, energies), fmt.Sprintf("energy (%s) by geometry", cfg.Units)))
	}
	return nil
}

// loadBatch reads path, or draws a random batch when path is empty.
// Coordinates come in angstrom and are returned in bohr.
func loadBatch(cfg *config.Config, path string) (geometry.Batch, []string, error) {
	var (
		b       geometry.Batch
		symbols []string
		err     error
	)
	if path != "" {
		b, symbols, err = geometry.OpenXYZ(path)
	} else {
		rng := rand.New(rand.NewSource(cfg.Random.Seed))
		b, err = geometry.Random(rng, cfg.Random.Geometries, cfg.Random.Atoms, cfg.Random.Scale)
		symbols = make([]string, cfg.Random.Atoms)
		for i := range symbols {
			symbols[i] = "X"
		}
	}
	if err != nil {
		return geometry.Batch{}, nil, err
	}
	return b.Scale(geometry.AngstromToBohr), symbols, nil
}

func writeGeometries(path string, b geometry.Batch, symbols []string, energies []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := geometry.WriteXYZ(f, b.Scale(geometry.BohrToAngstrom), symbols, energies); err != nil {
		return err
	}
	return f.Close()
}

func printEnergies(out io.Writer, energies []float64, limit int) error {
	n := len(energies)
	if limit >= 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tHARTREE\tCM-1")
	for i, e := range energies[:n] {
		fmt.Fprintf(w, "%d\t%.12f\t%.4f\n", i, e, e*geometry.HartreeToWavenumber)
	}
	if n < len(energies) {
		fmt.Fprintf(w, "…\t%d more\t\n", len(energies)-n)
	}
	return w.Flush()
}

func convertAll(cfg *config.Config, energies []float64) []float64 {
	out := make([]float64, len(energies))
	for i, e := range energies {
		out[i] = cfg.Convert(e)
	}
	return out
}

func convertStats(cfg *config.Config, stats map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for k, v := range stats {
		out[k] = cfg.Convert(v)
	}
	return out
}
