package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qms-server",
		Short: "Queue engine for hospital service counters",
		Long: `qms-server issues nothing and prints nothing: it orders admitted tickets,
mediates desk claims and pushes queue changes to room displays, TVs and dashboards.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
