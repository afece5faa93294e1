package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const binaryName = "lotteryd"

// NewRootCmd creates the lotteryd command tree. Each invocation gets its own
// viper instance so flags, env and config file never leak between commands.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           binaryName,
		Short:         "Pooled-entry lottery ABCI application",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("home", ".lottery", "app home directory (config under <home>/config, data under <home>/data)")
	_ = v.BindPFlag("home", rootCmd.PersistentFlags().Lookup("home"))

	rootCmd.AddCommand(
		newStartCmd(v),
		newGenesisCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
