package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/zerr"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build targets through the downstream executor",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("directory")
			dir, err := filepath.Abs(dir)
			if err != nil {
				return zerr.Wrap(err, "failed to resolve project root")
			}

			jobs, _ := cmd.Flags().GetInt("jobs")
			loadAvg, _ := cmd.Flags().GetInt("load-avg")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			verbose, _ := cmd.Flags().GetBool("verbose")
			explain, _ := cmd.Flags().GetBool("explain")
			return c.app.Build(cmd.Context(), dir, args, app.BuildOptions{
				Jobs:    jobs,
				LoadAvg: loadAvg,
				DryRun:  dryRun,
				Verbose: verbose,
				Explain: explain,
			})
		},
	}
	cmd.Flags().StringP("directory", "C", ".", "Project root directory")
	cmd.Flags().IntP("jobs", "j", 0, "Run up to N jobs in parallel")
	cmd.Flags().IntP("load-avg", "l", 0, "Do not start new jobs above this load average")
	cmd.Flags().BoolP("dry-run", "n", false, "Show what would be built without building")
	cmd.Flags().BoolP("verbose", "v", false, "Show full command lines while building")
	cmd.Flags().Bool("explain", false, "Explain why each step is run")
	return cmd
}
