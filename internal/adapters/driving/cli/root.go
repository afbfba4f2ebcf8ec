// Package cli implements the diario command-line interface using cobra.
// Commands talk to the core services through the driving ports; the
// concrete adapters are wired lazily on first use so that help and
// version never touch the filesystem.
package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diario-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/diario-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/diario-cli/internal/connectors/djen"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diario-cli/internal/core/services"
	"github.com/custodia-labs/diario-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services used by the commands. Wired by ensureServices; tests
// replace them with mocks.
var (
	watchOrchestrator driving.WatchOrchestrator
	configStore       driven.ConfigStore
	cacheStore        driven.CacheStore
	pubStore          driven.PublicationStore
	djenSource        *djen.Source
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "diario",
	Short: "Watch Brazilian court gazettes for a lawyer's publications",
	Long: `diario watches the DJEN (Diário de Justiça Eletrônico Nacional)
for publications relevant to a bar registration. Fetched gazette pages
are scored against the watched registration, deduplicated by content
and persisted locally for listing and auditing.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var (
	wireOnce sync.Once
	wireErr  error
)

// ensureServices wires the real adapters exactly once. Commands that
// were given mocks (tests) skip wiring entirely.
func ensureServices() error {
	if watchOrchestrator != nil {
		return nil
	}
	wireOnce.Do(func() { wireErr = wireServices() })
	return wireErr
}

func wireServices() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = cfg

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	cacheStore = store.CacheStore()
	pubStore = store.PublicationStore()

	djenCfg := djen.Config{
		BaseURL:    cfg.GetString("djen.base_url"),
		PageSize:   cfg.GetInt("djen.page_size"),
		MaxRetries: cfg.GetInt("djen.max_retries"),
		CachePages: !cfg.GetBool("djen.no_page_cache"),
	}
	djenSource = djen.New(djenCfg, cacheStore)

	scorer := services.NewRelevanceScorer(services.ScorerConfig{
		Threshold: cfg.GetFloat("watch.threshold"),
	})
	watchOrchestrator = services.NewWatchOrchestrator(djenSource, cacheStore, pubStore, scorer)
	return nil
}
