// Package toolexec runs external build-tool executables (javac, the
// annotation stripper, the transpiler, the closure optimizer) and captures
// their combined output for diagnostic parsing. It is adapted from the
// teacher's internal/pkg/cmdrun and internal/pkg/bashexec helpers: command
// arguments are logged before running, the child is bound to the caller's
// lifetime via SysProcAttr, and output is buffered rather than streamed so
// that a failing invocation's full transcript can be attached to an error.
package toolexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Invocation describes one external command to run.
type Invocation struct {
	// Name identifies the tool for logging (e.g. "javac", "j2cl").
	Name string
	Bin  string
	Args []string
}

// Result is the captured outcome of running an Invocation.
type Result struct {
	Output   string
	ExitCode int
	Err      error
}

// Run synchronously executes the invocation, honoring ctx cancellation, and
// returns the combined stdout+stderr. It never returns a non-nil error for
// a clean non-zero exit — the caller is expected to classify the tool's own
// diagnostics from Result.Output; Err is populated only for failures to
// start/run the process at all (missing binary, context cancellation).
func Run(ctx context.Context, inv Invocation, logger *logrus.Logger) Result {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"tool": inv.Name,
		"bin":  inv.Bin,
		"args": strings.Join(inv.Args, " "),
	}).Debug("invoking external tool")

	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	res := Result{Output: buf.String()}
	if err != nil {
		if ctx.Err() != nil {
			res.Err = fmt.Errorf("toolexec: %s cancelled: %w", inv.Name, ctx.Err())
			return res
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res
		}
		res.Err = fmt.Errorf("toolexec: failed to run %s: %w", inv.Name, err)
	}
	return res
}
