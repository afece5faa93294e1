package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"onchainlottery/internal/app"
)

// Version is set at build time with -ldflags "-X onchainlottery/cmd/lotteryd/cmd.Version=...".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the binary and app protocol version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (app version %d)\n", binaryName, Version, app.AppVersion)
			return err
		},
	}
}
