// Package logging provides the component logger used across potman.
// It wraps rs/zerolog behind a small printf-style interface so packages can
// accept a [Logger] and tests can pass [Nop].
package logging
