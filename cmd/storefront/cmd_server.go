package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/internal/server"
)

var (
	serveWorkers   int
	serveScheduler bool
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(server.Options{Workers: serveWorkers, Scheduler: serveScheduler})
	},
}

// storefront route:list
var routeListCmd = &cobra.Command{
	Use:     "route:list",
	Aliases: []string{"routes"},
	Short:   "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := kernel.RouteTable()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 4, "In-process queue workers (0 to run them with queue:work)")
	serveCmd.Flags().BoolVar(&serveScheduler, "scheduler", true, "Run scheduled tasks in this process")
}
