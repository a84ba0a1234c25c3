// Package shell provides the downstream executor adapter: it hands the
// generated script to ninja.
package shell

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

// NinjaRunner implements ports.Runner using os/exec.
type NinjaRunner struct {
	tracer ports.Tracer
	logger ports.Logger

	// Command is the executor binary to invoke, "ninja" unless
	// overridden.
	Command string
}

// NewRunner creates a NinjaRunner.
func NewRunner(tracer ports.Tracer, logger ports.Logger) *NinjaRunner {
	return &NinjaRunner{tracer: tracer, logger: logger, Command: "ninja"}
}

// Run invokes the executor in dir on the given targets. The process
// output streams into a telemetry span covering the invocation.
func (r *NinjaRunner) Run(ctx context.Context, dir string, targets []string, opts ports.RunOptions) error {
	args := append(buildArgs(opts), targets...)

	ctx, span := r.tracer.Start(ctx, r.Command+" "+strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, r.Command, args...) //nolint:gosec // args assembled above
	cmd.Dir = dir
	cmd.Stdout = span
	cmd.Stderr = span

	err := cmd.Run()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, "build executor failed"),
			"exit_code", exitCode)
		r.logger.Error(err)
	}
	span.End(err)
	return err
}

func buildArgs(opts ports.RunOptions) []string {
	var args []string
	if opts.Jobs > 0 {
		args = append(args, "-j", strconv.Itoa(opts.Jobs))
	}
	if opts.LoadAvg > 0 {
		args = append(args, "-l", strconv.Itoa(opts.LoadAvg))
	}
	if opts.DryRun {
		args = append(args, "-n")
	}
	if opts.Verbose {
		args = append(args, "-v")
	}
	if opts.Explain {
		args = append(args, "-d", "explain")
	}
	return args
}
