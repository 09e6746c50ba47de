package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the pulse command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pulse",
		Short:         "pulse - social backend",
		Long:          "REST backend for posts, comments, likes, follows and notifications.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewSeedCommand())

	return cmd
}
