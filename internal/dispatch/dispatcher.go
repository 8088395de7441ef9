package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/potman/internal/geometry"
	"github.com/san-kum/potman/internal/logging"
	"github.com/san-kum/potman/internal/metrics"
	"github.com/san-kum/potman/internal/potential"
)

const tracerName = "github.com/san-kum/potman/internal/dispatch"

type options struct {
	workers    int
	maxWorkers int
	log        logging.Logger
	metrics    *metrics.Collector
}

type Option func(*options)

// WithWorkers sets the pool size. 0 and 1 evaluate serially on the caller's
// goroutine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// DefaultMaxWorkers is the pool size cap when none is given. Workers mostly
// wait on the potential, so it allows oversubscribing the CPUs.
func DefaultMaxWorkers() int {
	return 4 * runtime.NumCPU()
}

// WithMaxWorkers caps the pool size; the default is DefaultMaxWorkers.
func WithMaxWorkers(n int) Option {
	return func(o *options) { o.maxWorkers = n }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// Dispatcher evaluates a bound potential over geometry batches, optionally
// splitting each batch across a persistent worker pool. Evaluate may be
// called concurrently; Close releases the pool.
type Dispatcher struct {
	pot     potential.Potential
	pool    *Pool
	log     logging.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	closed  atomic.Bool
}

// Open resolves src and starts a dispatcher for it. Resolution errors are
// returned before any pool is created.
func Open(ctx context.Context, r *potential.Resolver, src potential.Source, opts ...Option) (*Dispatcher, error) {
	pot, err := r.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	return New(pot, opts...)
}

func New(pot potential.Potential, opts ...Option) (*Dispatcher, error) {
	o := options{maxWorkers: DefaultMaxWorkers(), log: logging.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	if pot == nil {
		return nil, errors.New("dispatch: nil potential")
	}
	if o.workers < 0 || o.workers > o.maxWorkers {
		return nil, &PoolInitError{Size: o.workers, Err: fmt.Errorf("%w: want 0..%d", ErrPoolSize, o.maxWorkers)}
	}

	d := &Dispatcher{
		pot:     pot,
		log:     o.log,
		metrics: o.metrics,
		tracer:  otel.Tracer(tracerName),
	}
	if o.workers > 1 {
		pool, err := NewPool(o.workers)
		if err != nil {
			return nil, &PoolInitError{Size: o.workers, Err: err}
		}
		d.pool = pool
		d.log.Infof("started pool of %d workers", o.workers)
	}
	d.metrics.SetWorkers(d.Workers())
	return d, nil
}

// Workers returns the pool size, or 0 for serial evaluation.
func (d *Dispatcher) Workers() int {
	if d.pool == nil {
		return 0
	}
	return d.pool.Size()
}

// Evaluate returns one energy per geometry of b, in the order of b.
func (d *Dispatcher) Evaluate(ctx context.Context, b geometry.Batch) ([]float64, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if b.Len() == 0 {
		return []float64{}, nil
	}

	ctx, span := d.tracer.Start(ctx, "dispatch.Evaluate", trace.WithAttributes(
		attribute.Int("potman.geometries", b.Len()),
		attribute.Int("potman.atoms", b.Atoms()),
		attribute.Int("potman.workers", d.Workers()),
	))
	defer span.End()

	start := time.Now()
	mode := metrics.ModeSerial
	var (
		energies []float64
		err      error
	)
	switch {
	case ctx.Err() != nil:
		err = &EvaluationError{Chunk: -1, Err: ctx.Err()}
	case d.pool == nil:
		energies, err = d.serial(ctx, b)
	default:
		mode = metrics.ModePool
		energies, err = d.parallel(ctx, b)
	}
	elapsed := time.Since(start)
	d.metrics.ObserveEvaluation(mode, b.Len(), elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.log.Warnf("evaluation of %d geometries failed: %v", b.Len(), err)
		return nil, err
	}
	d.log.Debugf("evaluated %d geometries in %s (%s)", b.Len(), elapsed, mode)
	return energies, nil
}

// EvaluateTimed is Evaluate plus the wall time of the call.
func (d *Dispatcher) EvaluateTimed(ctx context.Context, b geometry.Batch) ([]float64, time.Duration, error) {
	start := time.Now()
	energies, err := d.Evaluate(ctx, b)
	return energies, time.Since(start), err
}

func (d *Dispatcher) serial(ctx context.Context, b geometry.Batch) ([]float64, error) {
	energies, err := d.pot.Energies(ctx, b)
	if err != nil {
		return nil, &EvaluationError{Chunk: -1, Err: err}
	}
	if len(energies) != b.Len() {
		return nil, &EvaluationError{Chunk: -1, Err: fmt.Errorf("%w: got %d, want %d", ErrEnergyCount, len(energies), b.Len())}
	}
	return energies, nil
}

func (d *Dispatcher) parallel(ctx context.Context, b geometry.Batch) ([]float64, error) {
	chunks := geometry.Split(b, d.pool.Size())
	parts := make([][]float64, len(chunks))

	err := d.pool.Map(ctx, len(chunks), func(ctx context.Context, i int) error {
		c := chunks[i]
		if c.Len() == 0 {
			return nil
		}
		energies, err := d.pot.Energies(ctx, c)
		if err != nil {
			return &EvaluationError{Chunk: i, Err: err}
		}
		if len(energies) != c.Len() {
			return &EvaluationError{Chunk: i, Err: fmt.Errorf("%w: got %d, want %d", ErrEnergyCount, len(energies), c.Len())}
		}
		parts[i] = energies
		return nil
	})
	if err != nil {
		var eerr *EvaluationError
		if !errors.As(err, &eerr) {
			err = &EvaluationError{Chunk: -1, Err: err}
		}
		return nil, err
	}
	return geometry.Concat(parts), nil
}

// Close stops the worker pool. Further Evaluate calls return ErrClosed.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if d.pool != nil {
		d.pool.Close()
		d.log.Infof("stopped pool of %d workers", d.pool.Size())
	}
	d.metrics.SetWorkers(0)
	return nil
}
