package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
	Long: `Inspect and maintain the local response cache. Cached upstream pages
and job summaries expire on their own; these commands exist for
inspection and manual cleanup.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache occupancy and hit counters",
	RunE:  runCacheStats,
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cache entries",
	RunE:  runCacheSweep,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if cacheStore == nil {
		return errors.New("cache store not configured")
	}

	stats, err := cacheStore.Stats(context.Background())
	if err != nil {
		return err
	}

	cmd.Printf("Entries:  %d live, %d expired\n", stats.Entries, stats.Expired)
	cmd.Printf("Size:     %d bytes compressed\n", stats.SizeBytes)
	cmd.Printf("Hits:     %d\n", stats.Hits)
	cmd.Printf("Misses:   %d\n", stats.Misses)
	return nil
}

func runCacheSweep(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if cacheStore == nil {
		return errors.New("cache store not configured")
	}

	removed, err := cacheStore.Sweep(context.Background())
	if err != nil {
		return err
	}
	cmd.Printf("Removed %d expired entries.\n", removed)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if cacheStore == nil {
		return errors.New("cache store not configured")
	}

	if err := cacheStore.Clear(context.Background()); err != nil {
		return err
	}
	cmd.Println("Cache cleared.")
	return nil
}
