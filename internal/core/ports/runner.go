package ports

import "context"

// RunOptions carries the executor flags forwarded to the downstream
// build tool.
type RunOptions struct {
	// Jobs limits parallel jobs; zero leaves the executor's default.
	Jobs int
	// LoadAvg caps the system load average; zero leaves the default.
	LoadAvg int
	// DryRun asks the executor to report what it would do.
	DryRun bool
	// Verbose echoes full command lines.
	Verbose bool
	// Explain asks the executor to explain why steps rerun.
	Explain bool
}

// Runner defines the interface for invoking the downstream build
// executor on the generated script.
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Runner interface {
	// Run builds the given targets (all defaults when empty) in dir.
	Run(ctx context.Context, dir string, targets []string, opts RunOptions) error
}
