package dispatch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

type task struct {
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan<- error
}

// Pool is a fixed set of workers that outlives individual Map calls. It must
// be released with Close.
type Pool struct {
	size  int
	tasks chan task

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPoolSize, size)
	}
	p := &Pool{size: size, tasks: make(chan task)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p, nil
}

func (p *Pool) Size() int { return p.size }

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		t.done <- p.exec(t)
	}
}

func (p *Pool) exec(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()
	return t.run(t.ctx)
}

// Map runs fn(ctx, i) for every i in [0, n) on the pool and blocks until all
// submitted calls return. The first failure cancels the context passed to the
// remaining calls and is returned; no partial results are reported.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	submitted := 0
submit:
	for i := 0; i < n; i++ {
		done := make(chan error, 1)
		t := task{
			ctx:  gctx,
			run:  func(ctx context.Context) error { return fn(ctx, i) },
			done: done,
		}
		select {
		case p.tasks <- t:
		case <-gctx.Done():
			break submit
		}
		submitted++
		g.Go(func() error { return <-done })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if submitted < n {
		return ctx.Err()
	}
	return nil
}

// Close stops the workers after in-flight Map calls finish. It is safe to
// call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
