package shell_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/logger"
	"go.trai.ch/mason/internal/adapters/shell"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// captureTracer hands out spans that buffer the process output.
type captureTracer struct {
	spans []*captureSpan
}

type captureSpan struct {
	bytes.Buffer
	err   error
	ended bool
}

func (t *captureTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	span := &captureSpan{}
	t.spans = append(t.spans, span)
	return ctx, span
}

func (t *captureTracer) Close() error { return nil }

func (s *captureSpan) End(err error) {
	s.ended = true
	s.err = err
}

// fakeExecutor writes a shell script that echoes its arguments.
func fakeExecutor(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ninja")
	//nolint:gosec // test needs an executable file
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o700))
	return path
}

func TestRunner_ForwardsFlagsAndTargets(t *testing.T) {
	tracer := &captureTracer{}
	runner := shell.NewRunner(tracer, logger.NewWithOutput(io.Discard))
	runner.Command = fakeExecutor(t, `echo "args: $@"`)

	err := runner.Run(context.Background(), t.TempDir(), []string{"all"}, ports.RunOptions{
		Jobs:    4,
		DryRun:  true,
		Verbose: true,
		Explain: true,
	})
	require.NoError(t, err)

	require.Len(t, tracer.spans, 1)
	span := tracer.spans[0]
	assert.Equal(t, "args: -j 4 -n -v -d explain all\n", span.String())
	assert.True(t, span.ended)
	assert.NoError(t, span.err)
}

func TestRunner_RunsInDirectory(t *testing.T) {
	tracer := &captureTracer{}
	runner := shell.NewRunner(tracer, logger.NewWithOutput(io.Discard))
	runner.Command = fakeExecutor(t, "pwd")

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background(), dir, nil, ports.RunOptions{}))

	assert.Equal(t, dir+"\n", tracer.spans[0].String())
}

func TestRunner_ReportsExitCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Error(gomock.Any()).Times(1)

	tracer := &captureTracer{}
	runner := shell.NewRunner(tracer, mockLogger)
	runner.Command = fakeExecutor(t, "exit 3")

	err := runner.Run(context.Background(), t.TempDir(), nil, ports.RunOptions{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "build executor failed")
	assert.Equal(t, err, tracer.spans[0].err)
}
