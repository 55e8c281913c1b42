package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rollup_book/internal/infra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), infra.UserAgent(Version))
		},
	}
}
