package potential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/san-kum/potman/internal/logging"
)

const DefaultProbeTimeout = 10 * time.Second

// Resolver binds Sources to Potentials. All paths are joined explicitly;
// the working directory of the process is never changed, so resolvers are
// safe to use from several goroutines.
type Resolver struct {
	registry     *Registry
	log          logging.Logger
	probeTimeout time.Duration
}

type ResolverOption func(*Resolver)

func WithResolverLogger(l logging.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// WithProbeTimeout bounds the "functions" query sent to external programs.
func WithProbeTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

func NewResolver(reg *Registry, opts ...ResolverOption) *Resolver {
	if reg == nil {
		reg = NewRegistry()
	}
	r := &Resolver{
		registry:     reg,
		log:          logging.Nop{},
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve binds src. Every failure is a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, src Source) (Potential, error) {
	fail := func(err error) (Potential, error) {
		return nil, &ResolutionError{Module: src.Module(), Function: src.Function, Directory: src.Directory, Err: err}
	}

	if err := src.Validate(); err != nil {
		return fail(err)
	}

	dir, err := filepath.Abs(src.Directory)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDirectoryNotFound, err))
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDirectoryNotFound, err))
	}
	if !info.IsDir() {
		return fail(fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir))
	}
	src.Directory = dir
	module := src.Module()

	log := r.log.With("module", module).With("function", src.Function)

	if strings.HasSuffix(src.File, ".so") {
		pot, err := openPlugin(filepath.Join(dir, src.File), src.Function)
		if err != nil {
			return fail(err)
		}
		log.Debugf("resolved go plugin %s", filepath.Join(dir, src.File))
		return pot, nil
	}

	if r.registry.HasModule(module) {
		factory, err := r.registry.Lookup(module, src.Function)
		if err != nil {
			return fail(err)
		}
		pot, err := factory(src)
		if err != nil {
			return fail(err)
		}
		log.Debugf("resolved registered potential")
		return pot, nil
	}

	pot, err := r.resolveExec(ctx, src)
	if err != nil {
		return fail(err)
	}
	log.Debugf("resolved external program %s", pot.Path)
	return pot, nil
}

func (r *Resolver) resolveExec(ctx context.Context, src Source) (*ExecPotential, error) {
	path := filepath.Join(src.Directory, src.File)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no registered module and no file %s", ErrModuleNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrModuleNotFound, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return nil, fmt.Errorf("%w: %s is not executable", ErrModuleNotFound, path)
	}

	pot := &ExecPotential{Path: path, Dir: src.Directory, Function: src.Function}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	names, err := pot.Functions(probeCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing functions: %v", ErrModuleNotFound, err)
	}
	if !slices.Contains(names, src.Function) {
		return nil, fmt.Errorf("%w: %s provides %v", ErrFunctionNotFound, src.File, names)
	}
	return pot, nil
}
