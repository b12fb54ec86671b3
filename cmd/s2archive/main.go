// Package main provides the entry point for the s2archive tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/geoarchive/sentinel2/internal/app"
	"github.com/geoarchive/sentinel2/internal/application"
	"github.com/geoarchive/sentinel2/internal/config"
	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/product"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "s2archive",
	Short: "s2archive - Sentinel-2 product identification and archival",
	Long: `s2archive identifies Sentinel-2 products from their filenames, extracts
their metadata and maintains a local product catalog.

Supported product families:
  - SAFE user products (MSIL1C, MSIL2A)
  - PDI datastrips and tiles (MSI_L1C_DS/TL, MSI_L2A_DS/TL)
  - Earth Explorer auxiliary files (orbit, GNSS, quality, GIPP, IERS)`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("s2archive %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

var identifyCmd = &cobra.Command{
	Use:   "identify <path> [path]",
	Short: "Identify the product kind of a path set",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		registry := product.NewRegistry()
		descriptor, ok := registry.Detect(args)
		if !ok {
			return fmt.Errorf("%v: %w", args, domain.ErrNotIdentified)
		}
		fmt.Println(descriptor.Kind())
		return nil
	},
}

var (
	analyzeFormat       string
	analyzeFilenameOnly bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path> [path]",
	Short: "Extract product properties",
	Long: `Analyze extracts the property bag of a product: the core properties
plus the sentinel2 namespace section. By default the product's metadata
documents are read; with --filename-only the analysis is restricted to
what the filename encodes.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		registry := product.NewRegistry()
		descriptor, ok := registry.Detect(args)
		if !ok {
			return fmt.Errorf("%v: %w", args, domain.ErrNotIdentified)
		}

		props, err := descriptor.Analyze(args, analyzeFilenameOnly)
		if err != nil {
			return err
		}
		return writeProperties(descriptor.Kind(), props)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <path> [path]",
	Short: "Print the relative archive path for a product",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		registry := product.NewRegistry()
		descriptor, ok := registry.Detect(args)
		if !ok {
			return fmt.Errorf("%v: %w", args, domain.ErrNotIdentified)
		}

		// Most kinds derive the path from the filename alone; tile kinds
		// need the metadata document for their sensing time.
		props, err := descriptor.Analyze(args, true)
		if err != nil {
			return err
		}
		archivePath, err := descriptor.ArchivePath(props)
		if err != nil {
			props, err = descriptor.Analyze(args, false)
			if err != nil {
				return err
			}
			if archivePath, err = descriptor.ArchivePath(props); err != nil {
				return err
			}
		}
		fmt.Println(archivePath)
		return nil
	},
}

var exportTarget string

var exportCmd = &cobra.Command{
	Use:   "export <path> [path]",
	Short: "Package a product into its canonical container format",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		registry := product.NewRegistry()
		descriptor, ok := registry.Detect(args)
		if !ok {
			return fmt.Errorf("%v: %w", args, domain.ErrNotIdentified)
		}

		dest, err := descriptor.Export(exportTarget, args)
		if err != nil {
			return err
		}
		fmt.Println(dest)
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <path> [path]",
	Short: "Analyze a product and store it in the catalog",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger := setupLogger(cfg.Logging)

		ctx := cmd.Context()
		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Shutdown()

		result, err := application.Ingest.Ingest(ctx, args)
		if err != nil {
			return err
		}
		return writeResult(result)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox directories and ingest arriving products",
	RunE:  runWatch,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")

	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format (text, json, yaml)")
	analyzeCmd.Flags().BoolVar(&analyzeFilenameOnly, "filename-only", false, "skip metadata documents")

	exportCmd.Flags().StringVar(&exportTarget, "target", ".", "target directory for the container")

	watchCmd.Flags().StringSlice("inbox", nil, "inbox directories to watch")
	watchCmd.Flags().String("catalog", "", "catalog database path")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("inbox.paths", watchCmd.Flags().Lookup("inbox"))
	_ = viper.BindPFlag("catalog.path", watchCmd.Flags().Lookup("catalog"))

	rootCmd.AddCommand(identifyCmd, analyzeCmd, pathCmd, exportCmd, ingestCmd, watchCmd, versionCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting s2archive",
		"version", version,
		"inbox", strings.Join(cfg.Inbox.Paths, ","),
		"catalog", cfg.Catalog.Path,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
	}

	if err := application.Shutdown(); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("stopped")
	return nil
}

func writeProperties(kind string, props *domain.Properties) error {
	switch analyzeFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(props)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(props)
	case "text":
		writeText(kind, props)
		return nil
	}
	return fmt.Errorf("unknown output format: %s", analyzeFormat)
}

func writeText(kind string, props *domain.Properties) {
	fmt.Printf("kind:            %s\n", kind)
	fmt.Printf("product_name:    %s\n", props.Core.ProductName)
	fmt.Printf("physical_name:   %s\n", props.Core.PhysicalName)
	fmt.Printf("validity_start:  %s\n", props.Core.ValidityStart.Format(time.RFC3339Nano))
	if !props.Core.ValidityStop.IsZero() {
		fmt.Printf("validity_stop:   %s\n", props.Core.ValidityStop.Format(time.RFC3339Nano))
	}
	if !props.Core.CreationDate.IsZero() {
		fmt.Printf("creation_date:   %s\n", props.Core.CreationDate.Format(time.RFC3339Nano))
	}

	for _, field := range domain.NamespaceSchema() {
		value := props.Sentinel2.FieldValue(field.Name)
		if value == nil {
			continue
		}
		fmt.Printf("%-16s %v\n", field.Name+":", value)
	}
}

func writeResult(result *application.IngestResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
