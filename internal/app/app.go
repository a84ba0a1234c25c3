// Package app implements the application layer for mason.
package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/emit"
	"go.trai.ch/zerr"
)

// App ties the loader, the generator, and the downstream executor
// together.
type App struct {
	loader ports.Loader
	runner ports.Runner
	logger ports.Logger
	tracer ports.Tracer
}

// New creates a new App instance.
func New(loader ports.Loader, runner ports.Runner, logger ports.Logger, tracer ports.Tracer) *App {
	return &App{
		loader: loader,
		runner: runner,
		logger: logger,
		tracer: tracer,
	}
}

// GenerateOptions carries the flags of the init command.
type GenerateOptions struct {
	// DumpEnvironments emits a commented listing of every environment.
	DumpEnvironments bool
}

// Generate loads the project tree rooted at root and writes its build
// script.
func (a *App) Generate(ctx context.Context, root string, opts GenerateOptions) error {
	project, err := a.loader.Load(root)
	if err != nil {
		return zerr.Wrap(err, "failed to load project")
	}

	err = emit.Generate(ctx, a.tracer, project, emit.Options{
		DumpEnvironments: opts.DumpEnvironments,
	})
	if err != nil {
		return zerr.Wrap(err, "failed to generate build script")
	}

	a.logger.Info("wrote " + filepath.Join(root, emit.ScriptName))
	return nil
}

// BuildOptions carries the flags of the build command.
type BuildOptions struct {
	Jobs    int
	LoadAvg int
	DryRun  bool
	Verbose bool
	Explain bool
}

// Build runs the downstream executor on the project's script, generating
// it first when absent. Once the script exists its embedded regeneration
// rule keeps it current, so Build does not reload the configuration on
// every invocation.
func (a *App) Build(ctx context.Context, root string, targets []string, opts BuildOptions) error {
	if _, err := os.Stat(filepath.Join(root, emit.ScriptName)); errors.Is(err, fs.ErrNotExist) {
		if err := a.Generate(ctx, root, GenerateOptions{}); err != nil {
			return err
		}
	}

	return a.runner.Run(ctx, root, targets, ports.RunOptions{
		Jobs:    opts.Jobs,
		LoadAvg: opts.LoadAvg,
		DryRun:  opts.DryRun,
		Verbose: opts.Verbose,
		Explain: opts.Explain,
	})
}

// Close flushes the telemetry recording.
func (a *App) Close() error {
	return a.tracer.Close()
}
