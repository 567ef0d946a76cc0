package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"hkracing-backend/lib/configutil"
	"hkracing-backend/lib/pocketbase"
	"hkracing-backend/lib/retry"
	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/lib/telemetry"
	"hkracing-backend/services/extraction"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hkjc-cli",
	Short: "hkjc-cli scrapes HKJC race odds, results, payouts and incident reports.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if *verbose {
			telemetry.InitSlog(true)
		}
	},
}

var verbose *bool

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
	os.Exit(1)
}

type Config struct {
	PocketBase pocketbase.Config `json:"pocketbase"`
	// OutputDir receives the local JSON backups.
	OutputDir string `json:"output_dir"`
	// CatalogDB is the sqlite race-date catalog path.
	CatalogDB string `json:"catalog_db"`
	// RaceDelaySeconds spaces out consecutive races of a batch run.
	RaceDelaySeconds int `json:"race_delay_seconds"`
	// FetchTimeoutSeconds bounds one page fetch including browser
	// startup.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds"`
}

// readConfig loads config.json5 (plus its .local override) and applies
// environment overrides, so credentials stay out of checked-in
// config.
func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		fatal("failed to read config", err)
	}

	if v := os.Getenv("POCKETBASE_URL"); v != "" {
		cfg.PocketBase.URL = v
	}
	if v := os.Getenv("POCKETBASE_EMAIL"); v != "" {
		cfg.PocketBase.Identity = v
	}
	if v := os.Getenv("POCKETBASE_PASSWORD"); v != "" {
		cfg.PocketBase.Password = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "extracted_data"
	}
	if cfg.CatalogDB == "" {
		cfg.CatalogDB = "racedates.db"
	}
	if cfg.RaceDelaySeconds == 0 {
		cfg.RaceDelaySeconds = 5
	}
	return cfg
}

// newSink authenticates against PocketBase, or returns nil for
// backup-only runs when no URL is configured.
func newSink(ctx context.Context, cfg Config) extraction.Sink {
	if cfg.PocketBase.URL == "" {
		return nil
	}
	client := pocketbase.New(cfg.PocketBase)
	if err := client.Authenticate(ctx); err != nil {
		fatal("failed to authenticate against pocketbase", err)
	}
	return client
}

func newService(ctx context.Context, cfg Config) extraction.Service {
	return extraction.NewService(extraction.Options{
		Client: hkjc.NewClient(hkjc.ClientOptions{
			Timeout: time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		}),
		Sink:      newSink(ctx, cfg),
		BackupDir: cfg.OutputDir,
		Retry:     retry.DefaultPolicy(),
		RaceDelay: time.Duration(cfg.RaceDelaySeconds) * time.Second,
	})
}
