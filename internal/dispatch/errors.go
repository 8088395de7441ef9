package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates use of a dispatcher or pool after Close.
	ErrClosed = errors.New("dispatch: closed")

	// ErrEnergyCount indicates a potential returned the wrong number of energies.
	ErrEnergyCount = errors.New("dispatch: energy count does not match geometry count")

	// ErrWorkerPanic indicates a potential panicked inside a pool worker.
	ErrWorkerPanic = errors.New("dispatch: worker panicked")

	// ErrPoolSize indicates a worker count outside [0, max].
	ErrPoolSize = errors.New("dispatch: invalid pool size")
)

// PoolInitError reports that the worker pool could not be created.
type PoolInitError struct {
	Size int
	Err  error
}

func (e *PoolInitError) Error() string {
	return fmt.Sprintf("start pool of %d workers: %v", e.Size, e.Err)
}

func (e *PoolInitError) Unwrap() error {
	return e.Err
}

// EvaluationError wraps a failure raised while evaluating a batch. Chunk is
// the index of the failing chunk, or -1 for serial evaluation. The original
// error stays reachable through errors.Is and errors.As.
type EvaluationError struct {
	Chunk int
	Err   error
}

func (e *EvaluationError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("evaluate: %v", e.Err)
	}
	return fmt.Sprintf("evaluate chunk %d: %v", e.Chunk, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
