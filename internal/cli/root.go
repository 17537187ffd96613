package cli

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return NewRoot().Execute()
}

// NewRoot builds the leadctl operator command.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Operate the LeadVett lead qualification backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		ScoreCmd(),
		FixPendingCmd(),
		MigrateCmd(),
	)
	return root
}
