// Command export renders one resume to a local PDF without going through the queue.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/storage"
	"showcase/internal/worker"
)

var (
	flagResumeID uint
	flagOutDir   string
	flagBaseURL  string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a showcase resume to a paginated PDF",
	Long: `Export loads a resume, renders its print page through the API and writes
the paginated PDF into the output directory.

Examples:
  export --resume-id 12 --out ./out
  export --resume-id 12 --out ./out --base-url http://localhost:8080`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runExport,
}

func init() {
	rootCmd.Flags().UintVar(&flagResumeID, "resume-id", 0, "Resume to export (required)")
	rootCmd.Flags().StringVar(&flagOutDir, "out", ".", "Output directory")
	rootCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "API base URL (default: API_BASE_URL)")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Log every export state")
	_ = rootCmd.MarkFlagRequired("resume-id")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	if flagResumeID == 0 {
		return fmt.Errorf("--resume-id must be positive")
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	baseURL := strings.TrimSpace(flagBaseURL)
	if baseURL == "" {
		baseURL = cfg.API.BaseURL
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	var store storage.ObjectStore
	if strings.TrimSpace(cfg.Export.BackgroundKey) != "" {
		client, err := storage.NewClient(cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init storage client: %w", err)
		}
		store = client
	}

	composer, err := worker.NewComposer(cfg.Export, store, logger)
	if err != nil {
		return fmt.Errorf("init export composer: %w", err)
	}

	browser, err := worker.LaunchBrowser(cfg.Worker)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	result, path, err := worker.LocalExport{
		DB:             db,
		Browser:        browser,
		Composer:       composer,
		Logger:         logger,
		BaseURL:        baseURL,
		InternalSecret: cfg.API.InternalSecret,
	}.Run(ctx, flagResumeID, flagOutDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages, %d blocks, %d links)\n", path, result.Pages, result.Blocks, result.Links)
	return nil
}

