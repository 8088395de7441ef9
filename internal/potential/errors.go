package potential

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSource     = errors.New("potential: invalid source")
	ErrDirectoryNotFound = errors.New("potential: directory not found")
	ErrModuleNotFound    = errors.New("potential: module not found")
	ErrFunctionNotFound  = errors.New("potential: function not found in module")
	ErrBadSymbol         = errors.New("potential: plugin symbol has unsupported type")
	ErrAlreadyRegistered = errors.New("potential: already registered")
	ErrProtocol          = errors.New("potential: malformed reply from external program")
)

// ResolutionError reports a failure to bind a Source. It is returned before
// any evaluation happens.
type ResolutionError struct {
	Module    string
	Function  string
	Directory string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s.%s in %q: %v", e.Module, e.Function, e.Directory, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ExecError carries the stderr of a failed external potential.
type ExecError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, e.Stderr)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
