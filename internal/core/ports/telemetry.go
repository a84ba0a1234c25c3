package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans around units of work:
// the evaluation of one concrete target, the script write, or the
// downstream executor invocation.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
	// Close flushes any buffered recording.
	Close() error
}

// Span represents a unit of work. Writes to the span surface as the
// unit's output stream.
type Span interface {
	io.Writer
	// End completes the span; a non-nil error marks it failed.
	End(err error)
}
