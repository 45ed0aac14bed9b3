// Package runner executes the wrapped external binaries and captures their
// output for provenance.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// Result holds what one external process did.
type Result struct {
	Command  []string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Run executes bin with args in workdir (the current directory when empty)
// and captures stdout and stderr separately. A non-zero exit is returned as
// an error that includes the tail of stderr; the Result is populated either
// way so callers can persist it.
func Run(ctx context.Context, workdir, bin string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = workdir

	var outb, errb bytes.Buffer
	cmd.Stdout = &outb
	cmd.Stderr = &errb

	err := cmd.Run()

	res := Result{
		Command: append([]string{bin}, args...),
		Stdout:  outb.Bytes(),
		Stderr:  errb.Bytes(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return res, pfx.Err(fmt.Errorf("%s exited with status %d: %s",
				bin, res.ExitCode, lastLines(res.Stderr, 5)))
		}

		return res, pfx.Err(err)
	}

	return res, nil
}

// WriteLogs persists the captured stdout and stderr to stdout.log and
// stderr.log in dir, with the command line as the first stdout line.
func (r Result) WriteLogs(dir string) error {
	stdout := strings.Join(r.Command, " ") + "\n" + string(r.Stdout)
	if err := os.WriteFile(filepath.Join(dir, "stdout.log"), []byte(stdout), 0o644); err != nil {
		return pfx.Err(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "stderr.log"), r.Stderr, 0o644); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Version runs bin with its version arguments and returns the first
// non-empty line it printed on either stream, or "unknown" when the probe
// fails. Many of the wrapped tools exit non-zero after printing their
// banner, so a failed exit is not treated as an error here.
func Version(ctx context.Context, bin string, args ...string) string {
	cmd := exec.CommandContext(ctx, bin, args...)

	out, _ := cmd.CombinedOutput()
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return "unknown"
}

// Look resolves the binary to run: the override path when given (which must
// exist), otherwise a PATH lookup of name. The result is absolute, since the
// tool is later spawned from a scratch working directory.
func Look(name, override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", pfx.Err(err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", pfx.Err(err)
		}

		return abs, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", pfx.Err(fmt.Errorf("%s was not found in your PATH: %w", name, err))
	}

	return path, nil
}

func lastLines(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}
