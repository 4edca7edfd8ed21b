package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/internal/kernel"
)

var (
	queueWorkersFlag int
	failedRetryFlag  uint
	failedForgetFlag uint
	failedLimitFlag  int
)

// storefront queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		if ready, delayed, err := k.PendingJobs(ctx); err == nil {
			fmt.Printf("Queue worker started (%d workers, %d ready, %d delayed). Press Ctrl+C to stop.\n",
				queueWorkersFlag, ready, delayed)
		} else {
			fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", queueWorkersFlag)
		}
		k.RunWorkers(ctx, queueWorkersFlag)
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

// storefront queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List failed jobs, or retry / forget one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		switch {
		case failedRetryFlag > 0:
			if err := k.RetryFailed(ctx, failedRetryFlag); err != nil {
				return fmt.Errorf("retry job %d: %w", failedRetryFlag, err)
			}
			fmt.Printf("Job %d pushed back onto the queue.\n", failedRetryFlag)
			return nil
		case failedForgetFlag > 0:
			if err := k.Failed.Forget(ctx, failedForgetFlag); err != nil {
				return fmt.Errorf("forget job %d: %w", failedForgetFlag, err)
			}
			fmt.Printf("Job %d deleted.\n", failedForgetFlag)
			return nil
		}

		records, err := k.Failed.List(ctx, failedLimitFlag)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tFAILED AT\tJOB\tATTEMPTS\tERROR")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.FailedAt.Format("2006-01-02 15:04:05"), r.JobType, r.Attempts, r.Error)
		}
		return w.Flush()
	},
}

// storefront schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		fmt.Println("Registered scheduled tasks:")
		for _, t := range k.Scheduler.List() {
			fmt.Println("  •", t)
		}
		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		k.Scheduler.Start(ctx)
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 4, "Number of concurrent workers")
	queueFailedCmd.Flags().UintVar(&failedRetryFlag, "retry", 0, "Retry the failed job with this id")
	queueFailedCmd.Flags().UintVar(&failedForgetFlag, "forget", 0, "Delete the failed job with this id")
	queueFailedCmd.Flags().IntVar(&failedLimitFlag, "limit", 50, "Maximum jobs to list")
}
