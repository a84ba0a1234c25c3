package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/telemetry"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/core/graph"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/core/ports/mocks"
	"go.trai.ch/mason/internal/engine/emit"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func emptyProject(root string) *graph.Project {
	return graph.NewProject(root, filepath.Join(root, "build"), "root")
}

func TestApp_Generate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	mockLoader := mocks.NewMockLoader(ctrl)
	mockLoader.EXPECT().Load(root).Return(emptyProject(root), nil)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any()).Times(1)

	a := app.New(mockLoader, mocks.NewMockRunner(ctrl), mockLogger, telemetry.NewNoOpTracer())
	require.NoError(t, a.Generate(context.Background(), root, app.GenerateOptions{}))

	_, err := os.Stat(filepath.Join(root, emit.ScriptName))
	assert.NoError(t, err)
}

func TestApp_Generate_LoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	boom := zerr.New("broken configuration")
	mockLoader := mocks.NewMockLoader(ctrl)
	mockLoader.EXPECT().Load(root).Return(nil, boom)

	a := app.New(mockLoader, mocks.NewMockRunner(ctrl),
		mocks.NewMockLogger(ctrl), telemetry.NewNoOpTracer())
	err := a.Generate(context.Background(), root, app.GenerateOptions{})
	require.ErrorIs(t, err, boom)
}

func TestApp_Build_GeneratesMissingScript(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	mockLoader := mocks.NewMockLoader(ctrl)
	mockLoader.EXPECT().Load(root).Return(emptyProject(root), nil)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any()).Times(1)
	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Run(gomock.Any(), root, []string{"all"}, gomock.Any()).
		Return(nil)

	a := app.New(mockLoader, mockRunner, mockLogger, telemetry.NewNoOpTracer())
	require.NoError(t, a.Build(context.Background(), root, []string{"all"}, app.BuildOptions{}))
}

func TestApp_Build_ExistingScriptSkipsLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, emit.ScriptName), []byte("# script\n"), 0o644))

	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Run(gomock.Any(), root, gomock.Nil(), gomock.Any()).
		Return(nil)

	// The loader must not be consulted; the script's regeneration rule
	// keeps it current.
	a := app.New(mocks.NewMockLoader(ctrl), mockRunner,
		mocks.NewMockLogger(ctrl), telemetry.NewNoOpTracer())
	require.NoError(t, a.Build(context.Background(), root, nil, app.BuildOptions{}))
}

func TestApp_Build_ForwardsOptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, emit.ScriptName), []byte("# script\n"), 0o644))

	var got ports.RunOptions
	mockRunner := mocks.NewMockRunner(ctrl)
	mockRunner.EXPECT().
		Run(gomock.Any(), root, gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []string, opts ports.RunOptions) error {
			got = opts
			return nil
		})

	a := app.New(mocks.NewMockLoader(ctrl), mockRunner,
		mocks.NewMockLogger(ctrl), telemetry.NewNoOpTracer())
	require.NoError(t, a.Build(context.Background(), root, nil, app.BuildOptions{
		Jobs:    2,
		DryRun:  true,
		Explain: true,
	}))
	assert.Equal(t, ports.RunOptions{Jobs: 2, DryRun: true, Explain: true}, got)
}
