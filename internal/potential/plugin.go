package potential

import (
	"context"
	"fmt"
	"plugin"

	"github.com/san-kum/potman/internal/geometry"
)

// PluginFunc is the symbol type a Go plugin must export.
type PluginFunc = func(coords []float64, atoms int) ([]float64, error)

func openPlugin(path, function string) (Potential, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModuleNotFound, err)
	}
	sym, err := p.Lookup(function)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFunctionNotFound, err)
	}

	var fn PluginFunc
	switch f := sym.(type) {
	case PluginFunc:
		fn = f
	case *PluginFunc:
		fn = *f
	default:
		return nil, fmt.Errorf("%w: %s is %T", ErrBadSymbol, function, sym)
	}

	return Func(func(ctx context.Context, b geometry.Batch) ([]float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn(b.Coords(), b.Atoms())
	}), nil
}
