package potential

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Potential for a resolved Source. Factories may read
// parameter files from src.Directory.
type Factory func(src Source) (Potential, error)

// Registry maps module and function names to factories. It is the explicit,
// compile-time alternative to loading code by file name.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]Factory)}
}

func (r *Registry) Register(module, function string, f Factory) error {
	if f == nil {
		return fmt.Errorf("nil factory for %s.%s", module, function)
	}
	if module == "" || function == "" {
		return fmt.Errorf("%w: empty module or function name", ErrInvalidSource)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fns, ok := r.modules[module]
	if !ok {
		fns = make(map[string]Factory)
		r.modules[module] = fns
	}
	if _, ok := fns[function]; ok {
		return fmt.Errorf("%w: %s.%s", ErrAlreadyRegistered, module, function)
	}
	fns[function] = f
	return nil
}

func (r *Registry) MustRegister(module, function string, f Factory) {
	if err := r.Register(module, function, f); err != nil {
		panic(err)
	}
}

// HasModule reports whether any function is registered under module.
func (r *Registry) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[module]
	return ok
}

func (r *Registry) Lookup(module, function string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}
	f, ok := fns[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q", ErrFunctionNotFound, module, function)
	}
	return f, nil
}

func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Functions(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := r.modules[module]
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
