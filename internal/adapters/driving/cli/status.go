package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check upstream connectivity and rate-limit state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if djenSource == nil {
		return errors.New("source not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := djenSource.Validate(ctx); err != nil {
		cmd.Printf("Upstream:   unreachable (%v)\n", err)
	} else {
		cmd.Println("Upstream:   reachable")
	}

	stats := djenSource.RateStats()
	cmd.Printf("Requests:   %d in window, %d total\n", stats.RequestsInWindow, stats.TotalRequests)
	cmd.Printf("Throttled:  %d times, backoff level %d\n", stats.TotalThrottled, stats.BackoffLevel)
	if stats.BlockedFor > 0 {
		cmd.Printf("Blocked:    %s remaining\n", stats.BlockedFor.Round(time.Second))
	}
	return nil
}
