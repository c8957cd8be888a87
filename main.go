package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"iconscrape/internal/checkpoint"
	"iconscrape/internal/config"
	"iconscrape/internal/driver"
	_ "iconscrape/internal/driver/cdpdriver"
	_ "iconscrape/internal/driver/roddriver"
	"iconscrape/internal/formatter"
	"iconscrape/internal/ids"
	"iconscrape/internal/output"
	"iconscrape/internal/results"
	"iconscrape/internal/scraper"
	"iconscrape/internal/sites/mcicons"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath   string
	idsPath      string
	outDir       string
	resultPath   string
	baseURL      string
	driverName   string
	showUI       bool
	proxyURL     string
	waitTimeout  time.Duration
	interval     time.Duration
	sqlitePath   string
	noResume     bool
	retryErrors  bool
	verbose      bool
	outputFormat string
	outputFile   string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "iconscrape",
		Short:   "Download and classify icons from the mcicons catalog",
		Version: version,
		Long: `iconscrape drives a real browser through the mcicons catalog, searching for
every identifier in the ids file, downloading each matching icon into a
category tree and recording the outcome in a resumable result file.`,
		Example: `  # Resolve ids.json into ./output, checkpointing to result.json
  iconscrape

  # Use chromedp, show the browser and also mirror results into SQLite
  iconscrape --driver chromedp --showui --sqlite results.db

  # Retry identifiers that failed last time
  iconscrape --retry-errors

  # Summarise a result file
  iconscrape report result.json -f markdown -o report.md`,
		Args:             cobra.NoArgs,
		PersistentPreRun: setupLogging,
		RunE:             runScrape,
		SilenceUsage:     true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (JSON5), merged with <name>.local.<ext>")
	rootCmd.Flags().StringVar(&idsPath, "ids", "", "Identifier list (JSON array of strings)")
	rootCmd.Flags().StringVar(&outDir, "out-dir", "", "Directory icons are downloaded into")
	rootCmd.Flags().StringVar(&resultPath, "result", "", "Result file path")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "Catalog URL")
	rootCmd.Flags().StringVar(&driverName, "driver", "", fmt.Sprintf("Browser driver (%s)", strings.Join(driver.Names(), ", ")))
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", os.Getenv("ICONSCRAPE_PROXY"), "Proxy URL (e.g. http://127.0.0.1:7890), defaults to ICONSCRAPE_PROXY env var")
	rootCmd.Flags().DurationVarP(&waitTimeout, "timeout", "t", 0, "How long to wait for each page element")
	rootCmd.Flags().DurationVar(&interval, "interval", 0, "Checkpoint interval")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also mirror results into this SQLite database")
	rootCmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore the existing result file and start over")
	rootCmd.Flags().BoolVar(&retryErrors, "retry-errors", false, "Drop failed entries from the result file so they are tried again")

	reportCmd := &cobra.Command{
		Use:   "report [RESULT_FILE]",
		Short: "Render a result file as text, html, markdown, json or csv",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReport,
	}
	reportCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format ("+strings.Join(formatter.Formats, ", ")+")")
	reportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	rootCmd.AddCommand(reportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger.With("run_id", uuid.NewString()))
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		if cmd.Flags().Changed("config") {
			return cfg, fmt.Errorf("config file not found: %s", configPath)
		}
	} else if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("ids") {
		cfg.IDs = idsPath
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = outDir
	}
	if flags.Changed("result") {
		cfg.Result = resultPath
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("driver") {
		cfg.Driver = driverName
	}
	if flags.Changed("showui") {
		cfg.ShowUI = showUI
	}
	if flags.Changed("proxy") || (cfg.Proxy == "" && proxyURL != "") {
		cfg.Proxy = proxyURL
	}
	if flags.Changed("timeout") {
		cfg.WaitTimeout = config.Duration(waitTimeout)
	}
	if flags.Changed("interval") {
		cfg.Interval = config.Duration(interval)
	}
	if flags.Changed("sqlite") {
		cfg.SQLite = sqlitePath
	}
	return cfg, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	list, err := ids.Load(cfg.IDs)
	if err != nil {
		return err
	}

	store := results.New()
	if !noResume {
		store, err = results.Load(cfg.Result, retryErrors)
		if err != nil {
			return err
		}
	}
	slog.Info("starting", "ids", len(list), "resumed", store.Len(), "driver", cfg.Driver)

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sinks := []checkpoint.Sink{checkpoint.FileSink{Path: cfg.Result}}
	if cfg.SQLite != "" {
		db, err := checkpoint.OpenSQLite(cfg.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := driver.Open(ctx, cfg.Driver, driver.Options{
		Headless:     !cfg.ShowUI,
		ProxyURL:     cfg.Proxy,
		Bin:          cfg.Bin,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		UserAgent:    cfg.UserAgent,
		FetchTimeout: cfg.FetchTimeout.Std(),
		FetchRetries: cfg.FetchRetries,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	session := &scraper.Session{
		Scraper: scraper.New(scraper.Options{
			Driver:      d,
			Store:       store,
			IDs:         ids.NewSet(list),
			OutputDir:   cfg.OutDir,
			BaseURL:     cfg.BaseURL,
			Selectors:   cfg.Selectors,
			Delays:      mcicons.DefaultDelays(),
			WaitTimeout: cfg.WaitTimeout.Std(),
			Taxonomy:    cfg.Taxonomy,
		}),
		Writer: checkpoint.New(store, cfg.Interval.Std(), sinks...),
	}

	sum, err := session.Run(ctx, list)
	if err != nil {
		return err
	}
	slog.Info("done",
		"total", sum.Total,
		"skipped", sum.Skipped,
		"icons", sum.Resolved,
		"not_found", sum.NotFound,
		"failed", sum.Failed,
		"interrupted", sum.Interrupted,
		"result", cfg.Result,
	)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	path := config.Default().Result
	if len(args) == 1 {
		path = args[0]
	}

	// If output file is specified but format is not, infer format from file extension
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := formatter.InferFormat(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}

	store, err := loadResultFile(path)
	if err != nil {
		return err
	}

	content, err := formatter.Format(output.NewReport(store.Snapshot()), outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := checkpoint.WriteFileAtomic(outputFile, []byte(content)); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
		return nil
	}
	fmt.Print(content)
	return nil
}

// loadResultFile reads an existing result file. Unlike a resumed scrape, a
// missing file is an error here.
func loadResultFile(path string) (*results.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	return results.Load(path, false)
}
