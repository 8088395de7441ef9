// Package potential resolves potential-energy functions.
//
// A [Source] names a function inside a module file that lives in a directory.
// [Resolver.Resolve] binds it to a [Potential] without ever changing the
// process working directory. Three kinds of module are understood:
//
//   - registered Go modules (see [Registry]; built-ins live in package potentials)
//   - Go plugins (*.so) exporting func(coords []float64, atoms int) ([]float64, error)
//   - executables speaking the line protocol implemented by [ExecPotential]
//
// # Example
//
//	reg := potential.NewRegistry()
//	potentials.Register(reg)
//	pot, err := potential.NewResolver(reg).Resolve(ctx, potential.Source{
//	    Function:  "potential",
//	    File:      "morse",
//	    Directory: ".",
//	})
package potential
