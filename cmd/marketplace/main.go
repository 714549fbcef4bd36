// Package main is the order marketplace binary: the HTTP API plus snapshot
// maintenance commands.
//
//	@title						Order Marketplace API
//	@version					1.0
//	@description				Freelance website-order marketplace.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "order-marketplace"

// Set through -ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marketplace",
		Short: "Freelance order marketplace",
		Long: `Marketplace runs the order marketplace API: clients place website orders,
a fixed pool of executors claims and delivers them, and every change is
persisted as a versioned snapshot.

Configuration is read from the environment (and an optional .env file).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serveCmd(),
		exportCmd(),
		importCmd(),
		checkCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}
