package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vetiver-net/vetiver/internal/interfaces/cli/migrate"
	"github.com/vetiver-net/vetiver/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetiver",
		Short: "Vetiver - metered proxy instance lifecycle and billing engine",
		Long:  `Vetiver provisions proxy instances on capacity nodes, meters their usage and bills it against user balances.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
