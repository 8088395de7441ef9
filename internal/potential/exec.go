package potential

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/san-kum/potman/internal/geometry"
)

// ExecPotential runs an external program once per call. The program is
// started in its own directory and must implement two subcommands:
//
//	<exe> functions        print one callable name per line
//	<exe> eval <function>  read "N M" then N*M lines of "x y z" on stdin,
//	                       print N energies, one per line
type ExecPotential struct {
	Path     string
	Dir      string
	Function string
}

func (p *ExecPotential) Energies(ctx context.Context, b geometry.Batch) ([]float64, error) {
	var stdin bytes.Buffer
	if err := encodeBatch(&stdin, b); err != nil {
		return nil, err
	}

	out, err := p.run(ctx, &stdin, "eval", p.Function)
	if err != nil {
		return nil, err
	}

	energies, err := parseEnergies(out)
	if err != nil {
		return nil, &ExecError{Path: p.Path, Err: err}
	}
	if len(energies) != b.Len() {
		return nil, &ExecError{Path: p.Path, Err: fmt.Errorf("%w: %d energies for %d geometries", ErrProtocol, len(energies), b.Len())}
	}
	return energies, nil
}

// Functions asks the program which callables it provides.
func (p *ExecPotential) Functions(ctx context.Context) ([]string, error) {
	out, err := p.run(ctx, nil, "functions")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (p *ExecPotential) run(ctx context.Context, stdin *bytes.Buffer, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Dir = p.Dir
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &ExecError{Path: p.Path, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

func encodeBatch(buf *bytes.Buffer, b geometry.Batch) error {
	w := bufio.NewWriter(buf)
	fmt.Fprintf(w, "%d %d\n", b.Len(), b.Atoms())
	c := b.Coords()
	for i := 0; i+2 < len(c); i += 3 {
		w.WriteString(strconv.FormatFloat(c[i], 'g', -1, 64))
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(c[i+1], 'g', -1, 64))
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(c[i+2], 'g', -1, 64))
		w.WriteByte('\n')
	}
	return w.Flush()
}

func parseEnergies(out []byte) ([]float64, error) {
	var energies []float64
	sc := bufio.NewScanner(bytes.NewReader(out))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrProtocol, line, text)
		}
		energies = append(energies, v)
	}
	return energies, sc.Err()
}
