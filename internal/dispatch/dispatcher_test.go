package dispatch_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/potman/internal/dispatch"
	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/metrics"
	"github.com/san-kum/potman/internal/potential"
)

func coordSum(b geometry.Batch, i int) float64 {
	s := 0.0
	for _, v := range b.Slice(i, i+1).Coords() {
		s += v
	}
	return s
}

func fourGeometries() geometry.Batch {
	b, err := geometry.NewBatch([]float64{
		0, 0, 0, 1, 1, 1,
		1, 2, 3, 4, 5, 6,
		-1, -1, -1, 0, 0, 0,
		0.5, 0.5, 0.5, 0.5, 0.5, 0.5,
	}, 2)
	Expect(err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx   context.Context
		sum   potential.Potential
		calls atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		inner := potential.PerGeometry(coordSum)
		sum = potential.Func(func(ctx context.Context, b geometry.Batch) ([]float64, error) {
			calls.Add(1)
			return inner.Energies(ctx, b)
		})
	})

	open := func(workers int) *dispatch.Dispatcher {
		d, err := dispatch.New(sum, dispatch.WithWorkers(workers), dispatch.WithMaxWorkers(16))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)
		return d
	}

	Context("serially", func() {
		It("returns one energy per geometry in order", func() {
			d := open(0)
			Expect(d.Workers()).To(Equal(0))
			energies, err := d.Evaluate(ctx, fourGeometries())
			Expect(err).NotTo(HaveOccurred())
			Expect(energies).To(Equal([]float64{3, 21, -3, 3}))
			Expect(calls.Load()).To(BeEquivalentTo(1))
		})

		It("treats a pool of one as serial", func() {
			d := open(1)
			Expect(d.Workers()).To(Equal(0))
		})
	})

	Context("with a pool", func() {
		It("matches serial evaluation", func() {
			d := open(2)
			Expect(d.Workers()).To(Equal(2))
			energies, err := d.Evaluate(ctx, fourGeometries())
			Expect(err).NotTo(HaveOccurred())
			Expect(energies).To(Equal([]float64{3, 21, -3, 3}))
			Expect(calls.Load()).To(BeEquivalentTo(2))
		})

		It("skips empty chunks when the pool outnumbers the geometries", func() {
			d := open(8)
			energies, err := d.Evaluate(ctx, fourGeometries())
			Expect(err).NotTo(HaveOccurred())
			Expect(energies).To(Equal([]float64{3, 21, -3, 3}))
			Expect(calls.Load()).To(BeEquivalentTo(4))
		})

		It("can be reused across calls", func() {
			d := open(3)
			for range 5 {
				energies, err := d.Evaluate(ctx, fourGeometries())
				Expect(err).NotTo(HaveOccurred())
				Expect(energies).To(HaveLen(4))
			}
		})
	})

	It("returns an empty result without calling the potential", func() {
		d := open(2)
		empty, err := geometry.NewBatch(nil, 3)
		Expect(err).NotTo(HaveOccurred())
		energies, err := d.Evaluate(ctx, empty)
		Expect(err).NotTo(HaveOccurred())
		Expect(energies).To(BeEmpty())
		Expect(calls.Load()).To(BeZero())
	})

	It("reports a non-negative elapsed time", func() {
		d := open(2)
		energies, elapsed, err := d.EvaluateTimed(ctx, fourGeometries())
		Expect(err).NotTo(HaveOccurred())
		Expect(energies).To(HaveLen(4))
		Expect(elapsed).To(BeNumerically(">=", 0))
	})

	Describe("errors", func() {
		boom := errors.New("boom")

		It("propagates potential failures from a worker", func() {
			failing := potential.Func(func(_ context.Context, b geometry.Batch) ([]float64, error) {
				return nil, boom
			})
			d, err := dispatch.New(failing, dispatch.WithWorkers(2), dispatch.WithMaxWorkers(4))
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			energies, err := d.Evaluate(ctx, fourGeometries())
			Expect(energies).To(BeNil())
			Expect(err).To(MatchError(boom))
			var eerr *dispatch.EvaluationError
			Expect(errors.As(err, &eerr)).To(BeTrue())
			Expect(eerr.Chunk).To(BeNumerically(">=", 0))
		})

		It("propagates serial failures", func() {
			failing := potential.Func(func(_ context.Context, b geometry.Batch) ([]float64, error) {
				return nil, boom
			})
			d, err := dispatch.New(failing)
			Expect(err).NotTo(HaveOccurred())
			_, err = d.Evaluate(ctx, fourGeometries())
			Expect(err).To(MatchError(boom))
		})

		It("rejects a wrong number of energies", func() {
			short := potential.Func(func(_ context.Context, b geometry.Batch) ([]float64, error) {
				return []float64{1}, nil
			})
			d, err := dispatch.New(short)
			Expect(err).NotTo(HaveOccurred())
			_, err = d.Evaluate(ctx, fourGeometries())
			Expect(err).To(MatchError(dispatch.ErrEnergyCount))
		})

		It("turns a panicking potential into an error", func() {
			panicky := potential.Func(func(_ context.Context, b geometry.Batch) ([]float64, error) {
				panic("segfault in fortran")
			})
			d, err := dispatch.New(panicky, dispatch.WithWorkers(2), dispatch.WithMaxWorkers(4))
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()
			_, err = d.Evaluate(ctx, fourGeometries())
			Expect(err).To(MatchError(dispatch.ErrWorkerPanic))
		})

		It("rejects out of range pool sizes", func() {
			for _, n := range []int{-1, 17} {
				_, err := dispatch.New(sum, dispatch.WithWorkers(n), dispatch.WithMaxWorkers(16))
				var perr *dispatch.PoolInitError
				Expect(errors.As(err, &perr)).To(BeTrue())
				Expect(perr.Size).To(Equal(n))
				Expect(err).To(MatchError(dispatch.ErrPoolSize))
			}
		})

		It("allows more workers than CPUs by default", func() {
			n := runtime.NumCPU() + 1
			d, err := dispatch.New(sum, dispatch.WithWorkers(n))
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()
			Expect(d.Workers()).To(Equal(n))

			_, err = dispatch.New(sum, dispatch.WithWorkers(dispatch.DefaultMaxWorkers()+1))
			Expect(err).To(MatchError(dispatch.ErrPoolSize))
		})

		It("stops after the context is cancelled", func() {
			d := open(2)
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := d.Evaluate(cctx, fourGeometries())
			Expect(err).To(MatchError(context.Canceled))
			Expect(calls.Load()).To(BeZero())
		})
	})

	Describe("Close", func() {
		It("is idempotent and refuses further work", func() {
			d, err := dispatch.New(sum, dispatch.WithWorkers(2), dispatch.WithMaxWorkers(4))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Close()).To(Succeed())
			Expect(d.Close()).To(Succeed())
			_, err = d.Evaluate(ctx, fourGeometries())
			Expect(err).To(MatchError(dispatch.ErrClosed))
		})
	})

	Describe("Open", func() {
		It("fails with a resolution error before any evaluation", func() {
			r := potential.NewResolver(potential.NewRegistry())
			_, err := dispatch.Open(ctx, r, potential.Source{
				Function:  "potential",
				File:      "ghost.py",
				Directory: GinkgoT().TempDir(),
			}, dispatch.WithWorkers(2), dispatch.WithMaxWorkers(4))
			var rerr *potential.ResolutionError
			Expect(errors.As(err, &rerr)).To(BeTrue())
			Expect(rerr.Module).To(Equal("ghost"))
		})

		It("binds a registered potential", func() {
			reg := potential.NewRegistry()
			reg.MustRegister("stub", "sum", func(potential.Source) (potential.Potential, error) {
				return sum, nil
			})
			d, err := dispatch.Open(ctx, potential.NewResolver(reg), potential.Source{
				Function:  "sum",
				File:      "stub.py",
				Directory: GinkgoT().TempDir(),
			}, dispatch.WithWorkers(2), dispatch.WithMaxWorkers(4))
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()
			Expect(d.Evaluate(ctx, fourGeometries())).To(Equal([]float64{3, 21, -3, 3}))
		})
	})

	Describe("metrics", func() {
		It("records evaluations and pool size", func() {
			reg := prometheus.NewRegistry()
			c, err := metrics.NewCollector(reg)
			Expect(err).NotTo(HaveOccurred())

			d, err := dispatch.New(sum, dispatch.WithWorkers(2), dispatch.WithMaxWorkers(4), dispatch.WithMetrics(c))
			Expect(err).NotTo(HaveOccurred())
			Expect(testutil.ToFloat64(c.Workers())).To(Equal(2.0))

			_, err = d.Evaluate(ctx, fourGeometries())
			Expect(err).NotTo(HaveOccurred())
			Expect(testutil.ToFloat64(c.Evaluations(metrics.ModePool, "ok"))).To(Equal(1.0))

			Expect(d.Close()).To(Succeed())
			Expect(testutil.ToFloat64(c.Workers())).To(BeZero())
		})
	})
})
