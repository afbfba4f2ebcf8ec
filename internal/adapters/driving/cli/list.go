package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

var (
	listFrom     string
	listTo       string
	listTribunal string
	listJSON     bool
	listFull     bool
)

var listCmd = &cobra.Command{
	Use:   "list [registration]",
	Short: "List stored publications for a registration",
	Long: `Lists publications previously persisted by watch jobs for the given
registration, newest first. Date and tribunal filters narrow the
output; by default each publication is shown as a one-line summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "earliest date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "latest date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTribunal, "tribunal", "", "restrict to one court")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.Flags().BoolVar(&listFull, "full", false, "print the full publication text")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if pubStore == nil {
		return errors.New("publication store not configured")
	}

	target, err := parseRegistration(args[0])
	if err != nil {
		return err
	}

	filter := domain.Query{Tribunal: strings.ToUpper(listTribunal)}
	if listFrom != "" {
		t, err := time.Parse(domain.DateFormat, listFrom)
		if err != nil {
			return fmt.Errorf("invalid --from date %q: %w", listFrom, err)
		}
		filter.Dates.Start = t
	}
	if listTo != "" {
		t, err := time.Parse(domain.DateFormat, listTo)
		if err != nil {
			return fmt.Errorf("invalid --to date %q: %w", listTo, err)
		}
		filter.Dates.End = t
	}

	ctx := context.Background()
	pubs, err := pubStore.List(ctx, target, filter)
	if err != nil {
		return fmt.Errorf("listing publications: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(pubs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal publications: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(pubs) == 0 {
		cmd.Println("No publications stored.")
		return nil
	}

	for i := range pubs {
		printPublication(cmd, &pubs[i], listFull)
	}
	cmd.Printf("\n%d publication(s) for %s\n", len(pubs), target.String())
	return nil
}

func printPublication(cmd *cobra.Command, sp *domain.ScoredPublication, full bool) {
	pub := &sp.Publication
	cmd.Printf("[%s] %s  score %.2f  %s\n",
		pub.Date.Format(domain.DateFormat), pub.Tribunal, sp.Score.Final, pub.ContentHash[:12])

	if full {
		cmd.Println(pub.RawText)
		cmd.Println()
		return
	}

	// One-line excerpt, trimmed on a rune boundary.
	text := pub.RawText
	if runes := []rune(text); len(runes) > 120 {
		text = string(runes[:120]) + "..."
	}
	cmd.Printf("    %s\n", text)
}
