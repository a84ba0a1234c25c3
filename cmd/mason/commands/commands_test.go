package commands_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/cmd/mason/commands"
	"go.trai.ch/mason/internal/adapters/config"
	"go.trai.ch/mason/internal/adapters/logger"
	"go.trai.ch/mason/internal/adapters/telemetry"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/build"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/core/ports/mocks"
	"go.trai.ch/mason/internal/engine/emit"
	"go.uber.org/mock/gomock"
)

func newCLI(t *testing.T, runner ports.Runner) *commands.CLI {
	t.Helper()
	log := logger.NewWithOutput(io.Discard)
	a := app.New(config.NewLoader(log), runner, log, telemetry.NewNoOpTracer())
	return commands.New(a)
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	conf := `
alias: root
environments:
  - name: default
    contents: {cc: gcc, cxx: g++, ar: ar}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, config.ConfFileName), []byte(conf), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0o755))
	pkg := `
targets:
  - name: tool
    kind: c_binary
    env: default
    sources: [main.c]
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "app", config.BuildFileName), []byte(pkg), 0o644))
	return root
}

func execute(t *testing.T, cli *commands.CLI, args ...string) error {
	t.Helper()
	cli.SetArgs(args)
	return cli.Execute(context.Background())
}

func TestInit_GeneratesScript(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := writeProject(t)
	cli := newCLI(t, mocks.NewMockRunner(ctrl))
	require.NoError(t, execute(t, cli, "init", root))

	content, err := os.ReadFile(filepath.Join(root, emit.ScriptName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "rule link_c_program")
	assert.Contains(t, string(content), "root//app:tool")
}

func TestInit_RefusesSecondRunWithoutReinit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := writeProject(t)
	cli := newCLI(t, mocks.NewMockRunner(ctrl))
	require.NoError(t, execute(t, cli, "init", root))

	err := execute(t, cli, "init", root)
	require.ErrorIs(t, err, commands.ErrAlreadyInitialized)

	require.NoError(t, execute(t, cli, "init", "--reinit", root))
}

func TestInit_DumpEnvironments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := writeProject(t)
	cli := newCLI(t, mocks.NewMockRunner(ctrl))
	require.NoError(t, execute(t, cli, "init", "--dump-environments", root))

	content, err := os.ReadFile(filepath.Join(root, emit.ScriptName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "ENVIRONMENT LISTING")
}

func TestBuild_ForwardsFlagsToRunner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := writeProject(t)
	runner := mocks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), root, []string{"all"}, ports.RunOptions{
			Jobs:    4,
			DryRun:  true,
			Verbose: true,
		}).
		Return(nil)

	cli := newCLI(t, runner)
	require.NoError(t, execute(t, cli,
		"build", "-C", root, "-j", "4", "-n", "-v", "all"))
}

func TestVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var out, errOut bytes.Buffer
	cli := newCLI(t, mocks.NewMockRunner(ctrl))
	cli.SetOutput(&out, &errOut)

	require.NoError(t, execute(t, cli, "version"))
	assert.Equal(t, "mason version "+build.Version+"\n", out.String())
	assert.Empty(t, errOut.String())
}
