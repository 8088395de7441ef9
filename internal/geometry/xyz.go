package geometry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrXYZ indicates a malformed XYZ stream.
var ErrXYZ = errors.New("geometry: ill-formed XYZ")

// ReadXYZ reads every frame of a multi-frame XYZ stream. Coordinates are
// returned as written, without unit conversion. Symbols come from the first
// frame.
func ReadXYZ(r io.Reader) (Batch, []string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		coords  []float64
		symbols []string
		atoms   = -1
		lineNo  int
	)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		return sc.Text(), true
	}

	for frame := 0; ; frame++ {
		header, ok := next()
		for ok && strings.TrimSpace(header) == "" {
			header, ok = next()
		}
		if !ok {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil || n <= 0 {
			return Batch{}, nil, fmt.Errorf("%w: line %d: bad atom count %q", ErrXYZ, lineNo, header)
		}
		if atoms == -1 {
			atoms = n
			symbols = make([]string, 0, n)
		} else if n != atoms {
			return Batch{}, nil, fmt.Errorf("%w: frame %d has %d atoms, want %d", ErrAtomCount, frame, n, atoms)
		}
		if _, ok := next(); !ok {
			return Batch{}, nil, fmt.Errorf("%w: frame %d truncated", ErrXYZ, frame)
		}
		for a := 0; a < n; a++ {
			line, ok := next()
			if !ok {
				return Batch{}, nil, fmt.Errorf("%w: frame %d truncated", ErrXYZ, frame)
			}
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return Batch{}, nil, fmt.Errorf("%w: line %d: want symbol and 3 coordinates", ErrXYZ, lineNo)
			}
			for _, f := range fields[1:4] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return Batch{}, nil, fmt.Errorf("%w: line %d: %v", ErrXYZ, lineNo, err)
				}
				coords = append(coords, v)
			}
			if frame == 0 {
				symbols = append(symbols, fields[0])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Batch{}, nil, err
	}
	if atoms == -1 {
		return Batch{}, nil, fmt.Errorf("%w: no frames", ErrXYZ)
	}

	b, err := NewBatch(coords, atoms)
	return b, symbols, err
}

// OpenXYZ reads an XYZ file, transparently decompressing *.gz.
func OpenXYZ(path string) (Batch, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Batch{}, nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadXYZ(r)
}

// WriteXYZ writes b as a multi-frame XYZ stream. When energies is non-nil its
// values go into the comment lines.
func WriteXYZ(w io.Writer, b Batch, symbols []string, energies []float64) error {
	if len(symbols) != b.Atoms() {
		return fmt.Errorf("%w: %d symbols for %d atoms", ErrXYZ, len(symbols), b.Atoms())
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < b.Len(); i++ {
		fmt.Fprintf(bw, "%d\n", b.Atoms())
		if energies != nil && i < len(energies) {
			fmt.Fprintf(bw, "energy=%.12f\n", energies[i])
		} else {
			fmt.Fprintf(bw, "frame %d\n", i)
		}
		g := b.Geometry(i)
		for a := 0; a < b.Atoms(); a++ {
			fmt.Fprintf(bw, "%-2s %14.8f %14.8f %14.8f\n", symbols[a], g.At(a, 0), g.At(a, 1), g.At(a, 2))
		}
	}
	return bw.Flush()
}
