package potential

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/potman/internal/geometry"
)

// Potential maps each geometry of a batch to an energy in hartree. The
// returned slice has one value per geometry, in batch order.
type Potential interface {
	Energies(ctx context.Context, b geometry.Batch) ([]float64, error)
}

// Func adapts a plain function to Potential.
type Func func(ctx context.Context, b geometry.Batch) ([]float64, error)

func (f Func) Energies(ctx context.Context, b geometry.Batch) ([]float64, error) {
	return f(ctx, b)
}

// PerGeometry builds a Potential from a single-geometry energy function.
func PerGeometry(energy func(g geometry.Batch, i int) float64) Potential {
	return Func(func(ctx context.Context, b geometry.Batch) ([]float64, error) {
		out := make([]float64, b.Len())
		for i := range out {
			if i%256 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			out[i] = energy(b, i)
		}
		return out, nil
	})
}

// Source names the callable to resolve.
type Source struct {
	Function  string         `koanf:"function" yaml:"function" json:"function"`
	File      string         `koanf:"file" yaml:"file" json:"file"`
	Directory string         `koanf:"directory" yaml:"directory" json:"directory"`
	Params    map[string]any `koanf:"params" yaml:"params,omitempty" json:"params,omitempty"`
}

// Module is the file name without its extension.
func (s Source) Module() string {
	base := filepath.Base(s.File)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

func (s Source) String() string {
	return fmt.Sprintf("%s.%s@%s", s.Module(), s.Function, s.Directory)
}

func (s Source) Validate() error {
	if strings.TrimSpace(s.Function) == "" {
		return fmt.Errorf("%w: empty function name", ErrInvalidSource)
	}
	if strings.TrimSpace(s.File) == "" {
		return fmt.Errorf("%w: empty module file", ErrInvalidSource)
	}
	return nil
}
