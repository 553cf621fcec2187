package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowlens/snowlens/internal/analyzer"
	"github.com/snowlens/snowlens/internal/config"
	"github.com/snowlens/snowlens/internal/data/loader"
	"github.com/snowlens/snowlens/internal/data/mapping"
	"github.com/snowlens/snowlens/internal/data/snowclient"
	"github.com/snowlens/snowlens/internal/presentation/formatter"
	"github.com/snowlens/snowlens/internal/util"
)

var (
	// Logging related
	debug bool

	// Output related
	outputFormat string

	// Backend overrides
	mappingsFile   string
	requestTimeout time.Duration

	rootCmd = &cobra.Command{
		Use:   "snowlens",
		Short: "ServiceNow AI-agent conversation performance analysis",
		Long: `snowlens inspects the execution traces AI-agent conversations leave across
a ServiceNow instance and reports where the time went.

Connection settings come from the environment: SNOWLENS_INSTANCE,
SNOWLENS_USERNAME and SNOWLENS_PASSWORD at minimum.

Examples:
  snowlens analyze 4f1e883097d0... 	             # Bottleneck analysis of one conversation
  snowlens compare 4f1e8830... 81ab02c4...       # Rank conversations against each other
  snowlens trends --window 24h                   # Degradation check over the last day
  snowlens trends --window 7d --usecase triage   # Trend for one use case
  snowlens watch 4f1e8830... --interval 30s      # Re-analyze a live conversation`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text",
		"Output format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&mappingsFile, "mappings", "",
		"JSON file overriding the built-in table mappings")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 0,
		"Per-request backend timeout (overrides SNOWLENS_REQUEST_TIMEOUT)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logLevel := "info"
		if debug {
			logLevel = "debug"
		}
		logFile := expandPath(defaultLogFile)
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			logFile = ""
		}
		if logFile == "" && !debug {
			// Nowhere to write; the logging helpers degrade to no-ops.
			return
		}
		util.InitLogger(logLevel, logFile, debug)
	}
}

const defaultLogFile = "~/.snowlens/logs/app.log"

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges environment configuration with command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if mappingsFile != "" {
		cfg.MappingsFile = mappingsFile
	}
	if requestTimeout > 0 {
		cfg.Backend.RequestTimeout = requestTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline assembles the client, table mappings, loader and analyzer
// from the effective configuration. The loader is returned separately so
// watch mode can hot-swap its table specs.
func buildPipeline(cfg *config.Config) (*analyzer.Pipeline, *loader.Loader, error) {
	specs, err := mapping.Load(cfg.MappingsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading table mappings: %w", err)
	}

	client := snowclient.New(snowclient.Options{
		BaseURL:  cfg.BaseURL(),
		Username: cfg.Backend.Username,
		Password: cfg.Backend.Password,
		Timeout:  cfg.Backend.RequestTimeout,
	})

	l := loader.New(client, specs, cfg.Backend.FetchLimit)
	return analyzer.NewPipeline(l, analyzer.New(cfg.Thresholds)), l, nil
}

func newFormatter() (formatter.Formatter, error) {
	return formatter.New(outputFormat, os.Stdout)
}
