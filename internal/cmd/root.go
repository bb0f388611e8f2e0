package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"taskview/internal/config"
)

// rootOptions carries state shared by every subcommand of one invocation.
type rootOptions struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "taskview",
		Short: "A minimal task list with a server-driven view",
		Long: `taskview keeps a list of tasks in a SQL store and serves them through a
reactive web component. The same operations are available from the command
line and from a terminal client.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is $HOME/.config/taskview/config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newTasksCmd(opts),
		newAddCmd(opts),
		newRmCmd(opts),
		newEditCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newTUICmd(opts),
		newDoctorCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
