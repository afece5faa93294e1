package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"onchainlottery/internal/state"
)

func newGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the default app_state for a CometBFT genesis file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := state.DefaultGenesis()
			if err := g.Validate(); err != nil {
				return err
			}
			b, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
