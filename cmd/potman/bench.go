package main

import (
	"context"
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/potman/internal/dispatch"
	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/logging"
)

// benchSizes returns 0 (serial) followed by powers of two below max, and max
// itself.
func benchSizes(max int) []int {
	sizes := []int{0}
	for n := 2; n < max; n *= 2 {
		sizes = append(sizes, n)
	}
	if max > 1 {
		sizes = append(sizes, max)
	}
	return sizes
}

func benchPotential(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	b, _, err := loadBatch(cfg, "")
	if err != nil {
		return err
	}
	pot, err := newResolver(cfg, log).Resolve(ctx, cfg.Potential)
	if err != nil {
		return err
	}

	collector, stopMetrics, err := startMetrics(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopMetrics()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking %s on %d geometries of %d atoms\n\n", cfg.Potential, b.Len(), b.Atoms())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tBEST\tSPEEDUP\tGEOMS/SEC\tMAX DEV")

	var (
		reference []float64
		serial    time.Duration
	)
	for _, n := range benchSizes(cfg.MaxWorkers) {
		d, err := dispatch.New(pot,
			dispatch.WithWorkers(n),
			dispatch.WithMaxWorkers(cfg.MaxWorkers),
			dispatch.WithLogger(log),
			dispatch.WithMetrics(collector),
		)
		if err != nil {
			return err
		}
		best, energies, err := benchOne(ctx, d, b, repeat, log)
		d.Close()
		if err != nil {
			return err
		}
		if reference == nil {
			reference, serial = energies, best
		}

		label := "serial"
		if n > 0 {
			label = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(w, "%s\t%v\t%.2fx\t%.0f\t%.3g\n",
			label,
			best,
			rate(serial.Seconds(), best),
			rate(float64(b.Len()), best),
			maxDeviation(reference, energies),
		)
	}
	return w.Flush()
}

// benchOne evaluates b repeat times and keeps the fastest wall time.
func benchOne(ctx context.Context, d *dispatch.Dispatcher, b geometry.Batch, repeat int, log logging.Logger) (time.Duration, []float64, error) {
	var (
		best     time.Duration
		energies []float64
	)
	for i := 0; i < max(repeat, 1); i++ {
		e, elapsed, err := d.EvaluateTimed(ctx, b)
		if err != nil {
			return 0, nil, err
		}
		log.Debugf("workers=%d round=%d elapsed=%s", d.Workers(), i, elapsed)
		if energies == nil || elapsed < best {
			best = elapsed
		}
		energies = e
	}
	return best, energies, nil
}

func rate(v float64, d time.Duration) float64 {
	if d <= 0 {
		return math.Inf(1)
	}
	return v / d.Seconds()
}

func maxDeviation(a, b []float64) float64 {
	dev := 0.0
	for i := range min(len(a), len(b)) {
		dev = math.Max(dev, math.Abs(a[i]-b[i]))
	}
	return dev
}
