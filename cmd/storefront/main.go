// Command storefront runs the storefront API and its maintenance tasks.
//
//	storefront serve              HTTP + gRPC + queue workers + scheduler
//	storefront migrate            apply pending migrations
//	storefront migrate:rollback   undo the last batch
//	storefront migrate:status     list migrations
//	storefront seed               demo accounts, products and orders
//	storefront route:list         print the route table
//	storefront queue:work         standalone queue workers (redis driver)
//	storefront queue:failed       inspect, retry or forget failed jobs
//	storefront schedule:run       standalone scheduler
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var closeLogger = func() {}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront API server and tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		closer, err := logger.Setup(config.AppEnv(), config.LogMongoURI())
		closeLogger = closer
		if err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogger()
	},
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
