package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := kernel.OpenDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		ran, err := migration.New(db).Up(cmd.Context())
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		return nil
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := kernel.OpenDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		undone, err := migration.New(db).Rollback(cmd.Context())
		if err != nil {
			return err
		}
		if len(undone) == 0 {
			fmt.Println("Nothing to rollback.")
		}
		for _, name := range undone {
			fmt.Println("Rolled back:", name)
		}
		return nil
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := kernel.OpenDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		statuses, err := migration.New(db).Status(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN?\tMIGRATION\tBATCH")
		for _, s := range statuses {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, s.Name, batch)
		}
		return w.Flush()
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo accounts, products and sample orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := kernel.OpenDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := seeders.RunAll(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Println("Database seeding completed.")
		return nil
	},
}
