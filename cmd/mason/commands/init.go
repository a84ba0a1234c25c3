package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/engine/emit"
	"go.trai.ch/zerr"
)

// ErrAlreadyInitialized is returned when init finds an existing build
// script and --reinit was not given.
var ErrAlreadyInitialized = zerr.New("project is already initialized, pass --reinit to regenerate")

func (c *CLI) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [root]",
		Short: "Generate the build script for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			root, err := filepath.Abs(root)
			if err != nil {
				return zerr.Wrap(err, "failed to resolve project root")
			}

			reinit, _ := cmd.Flags().GetBool("reinit")
			if !reinit {
				if _, err := os.Stat(filepath.Join(root, emit.ScriptName)); err == nil {
					return zerr.With(ErrAlreadyInitialized, "root", root)
				}
			}

			dump, _ := cmd.Flags().GetBool("dump-environments")
			return c.app.Generate(cmd.Context(), root, app.GenerateOptions{
				DumpEnvironments: dump,
			})
		},
	}
	cmd.Flags().Bool("reinit", false, "Regenerate the build script of an initialized project")
	cmd.Flags().Bool("dump-environments", false, "Include a commented listing of every environment")
	return cmd
}
