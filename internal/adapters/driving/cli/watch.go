package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driving"
)

var (
	watchFrom      string
	watchTo        string
	watchTribunal  string
	watchMaxPages  int
	watchThreshold float64
	watchBatchSize int
	watchWorkers   int
	watchNoCache   bool
	watchJSON      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [registration]...",
	Short: "Fetch and score gazette publications for registrations",
	Long: `Runs one watch job per registration: fetches gazette publications for
the date range, scores each against the registration (e.g. "123456/SP"),
drops duplicates and persists everything above the relevance threshold.

With several registrations the jobs run back to back; fetched pages are
cached, so later jobs over the same date range reuse them instead of
hitting the upstream again.

Interrupting a running job flushes already-scored records before
exiting, so partial progress is never lost.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFrom, "from", "", "start date (YYYY-MM-DD, default today)")
	watchCmd.Flags().StringVar(&watchTo, "to", "", "end date (YYYY-MM-DD, default today)")
	watchCmd.Flags().StringVar(&watchTribunal, "tribunal", "", "restrict to one court (e.g. TJSP)")
	watchCmd.Flags().IntVar(&watchMaxPages, "max-pages", 0, "cap fetched pages (0 = no cap)")
	watchCmd.Flags().Float64Var(&watchThreshold, "threshold", 0, "relevance threshold (default 0.3)")
	watchCmd.Flags().IntVar(&watchBatchSize, "batch-size", 0, "persistence batch size (default 100)")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "scoring workers, 1-4")
	watchCmd.Flags().BoolVar(&watchNoCache, "no-cache", false, "bypass the query result cache")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if watchOrchestrator == nil {
		return errors.New("watch service not configured")
	}

	// All registrations are validated up front so a typo in the last
	// one does not waste the fetches of the first.
	targets := make([]domain.Registration, 0, len(args))
	for _, arg := range args {
		target, err := parseRegistration(arg)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}
	dates, err := parseDateRange(watchFrom, watchTo)
	if err != nil {
		return err
	}

	opts := driving.WatchOptions{
		Threshold: watchThreshold,
		BatchSize: watchBatchSize,
		Workers:   watchWorkers,
		MaxPages:  watchMaxPages,
		NoCache:   watchNoCache,
	}

	// Ctrl-C cancels the job; the pipeline flushes before returning.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One job per registration. Later jobs reuse the page cache, so
	// the upstream is only paid for once per date range.
	for _, target := range targets {
		q := domain.Query{
			Target:   target,
			Dates:    dates,
			Tribunal: strings.ToUpper(watchTribunal),
		}

		cmd.Printf("Watching %s over %s...\n", target.String(), dates.String())

		summary, err := watchWithProgress(ctx, cmd, q, opts)
		if err != nil && !errors.Is(err, domain.ErrJobCancelled) {
			return fmt.Errorf("watch %s failed: %w", target.String(), err)
		}
		cancelled := errors.Is(err, domain.ErrJobCancelled)
		if cancelled {
			cmd.Println("Interrupted; partial results were flushed.")
		}

		if watchJSON {
			if err := outputSummaryJSON(cmd, summary); err != nil {
				return err
			}
		} else {
			outputSummaryText(cmd, summary)
		}
		if cancelled {
			break
		}
	}
	return nil
}

// watchWithProgress runs the job while displaying progress updates.
func watchWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	q domain.Query,
	opts driving.WatchOptions,
) (domain.Summary, error) {
	type result struct {
		summary domain.Summary
		err     error
	}
	resCh := make(chan result, 1)
	go func() {
		s, err := watchOrchestrator.Watch(ctx, q, opts)
		resCh <- result{s, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastObserved := 0
	for {
		select {
		case res := <-resCh:
			if lastObserved > 0 {
				cmd.Println()
			}
			return res.summary, res.err
		case <-ticker.C:
			status := watchOrchestrator.Status()
			if status != nil && status.Observed > lastObserved {
				cmd.Printf("\r[%s] %d records seen, %d persisted", status.State, status.Observed, status.Persisted)
				lastObserved = status.Observed
			}
		}
	}
}

func outputSummaryJSON(cmd *cobra.Command, summary domain.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// summaryBands is the print order for score bands, highest first.
var summaryBands = []string{"0.9-1.0", "0.7-0.9", "0.5-0.7", "0.3-0.5"}

func outputSummaryText(cmd *cobra.Command, s domain.Summary) {
	cmd.Println()
	cmd.Printf("Job %s: %s\n", s.JobID, s.State)
	if s.CacheHit {
		cmd.Println("Served from cache.")
	}
	cmd.Printf("  Pages fetched:  %d", s.PagesFetched)
	if len(s.FailedPages) > 0 {
		cmd.Printf(" (failed: %v)", s.FailedPages)
	}
	cmd.Println()
	cmd.Printf("  Observed:       %d\n", s.Observed)
	cmd.Printf("  Persisted:      %d\n", s.Persisted)
	cmd.Printf("  Duplicates:     %d\n", s.Duplicates)
	cmd.Printf("  Filtered:       %d\n", s.Filtered)
	cmd.Printf("  Errors:         %d\n", s.Errors)
	if len(s.Tribunals) > 0 {
		cmd.Printf("  Tribunals:      %s\n", strings.Join(s.Tribunals, ", "))
	}
	if len(s.ScoreBands) > 0 {
		cmd.Println("  Score bands:")
		for _, band := range summaryBands {
			if n := s.ScoreBands[band]; n > 0 {
				cmd.Printf("    %s: %d\n", band, n)
			}
		}
	}
	cmd.Printf("  Elapsed:        %s\n", s.Elapsed.Round(time.Millisecond))
}

// parseRegistration parses the "number/UF" command-line form.
func parseRegistration(s string) (domain.Registration, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return domain.Registration{}, fmt.Errorf("invalid registration %q: expected number/UF, e.g. 123456/SP", s)
	}
	reg := domain.Registration{Number: parts[0], UF: parts[1]}.Normalise()
	if !reg.Valid() {
		return domain.Registration{}, fmt.Errorf("invalid registration %q: need a 4-6 digit number and a valid UF", s)
	}
	return reg, nil
}

// parseDateRange parses the --from/--to flags. Both default to today.
func parseDateRange(from, to string) (domain.DateRange, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	start := today
	if from != "" {
		t, err := time.Parse(domain.DateFormat, from)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		start = t
	}

	end := today
	if to != "" {
		t, err := time.Parse(domain.DateFormat, to)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		end = t
	}

	if end.Before(start) {
		return domain.DateRange{}, fmt.Errorf("invalid date range: %s is after %s", from, to)
	}
	return domain.DateRange{Start: start, End: end}, nil
}
