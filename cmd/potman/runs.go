package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/potman/internal/config"
	"github.com/san-kum/potman/internal/potentials"
	"github.com/san-kum/potman/internal/storage"
	"github.com/san-kum/potman/internal/viz"
)

func listPotentials(cmd *cobra.Command, args []string) error {
	reg := potentials.NewRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tFUNCTION\tPARAMS")
	for _, module := range reg.Modules() {
		params, _ := potentials.Defaults(module)
		for _, fn := range reg.Functions(module) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", module, fn, formatParams(params))
		}
	}
	return w.Flush()
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPOTENTIAL\tGEOMETRIES\tATOMS\tUNITS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s.%s\t%d\t%d\t%s\n",
			name,
			cfg.Potential.Module(),
			cfg.Potential.Function,
			cfg.Random.Geometries,
			cfg.Random.Atoms,
			cfg.Units,
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOTENTIAL\tTIME\tGEOMS\tWORKERS\tELAPSED\tMEAN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s.%s\t%s\t%d\t%d\t%.4fs\t%.8g\n",
			run.ID,
			run.Source.Module(),
			run.Source.Function,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Geometries,
			run.Workers,
			run.Elapsed,
			run.Stats["mean"],
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	energies, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return storage.ExportJSON(out, *meta, energies)
	}

	summary := viz.Summary{
		Title:      meta.ID,
		Source:     meta.Source.String(),
		Geometries: meta.Geometries,
		Atoms:      meta.Atoms,
		Workers:    meta.Workers,
		Units:      cfg.Units,
		Stats:      convertStats(cfg, meta.Stats),
		Energies:   energies,
	}
	fmt.Fprintln(out, summary.Render())
	fmt.Fprintf(out, "saved %s, elapsed %.4fs\n\n", meta.Timestamp.Format("2006-01-02 15:04:05"), meta.Elapsed)
	fmt.Fprintln(out, viz.EnergyPlot(convertAll(cfg, energies), fmt.Sprintf("energy (%s) by geometry", cfg.Units)))
	return nil
}
