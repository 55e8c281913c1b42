// Package commands holds the obclient command tree.
package commands

import (
	"github.com/spf13/cobra"

	"rollup_book/internal/infra"
)

// Version is set at build time with -ldflags "-X rollup_book/cmd/obclient/commands.Version=...".
var Version = "dev"

const flagConfig = "config"

// NewRootCmd builds the obclient command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "obclient",
		Short:         "Order book client for a rollup-hosted matching service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String(flagConfig, "", "path to config.yaml (default: OBCLIENT_CONFIG, ./configs, user config dir)")

	root.AddCommand(
		newRunCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString(flagConfig); p != "" {
		return p
	}
	return infra.ResolveConfigPath()
}
