package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowlens/snowlens/internal/data/mapping"
	"github.com/snowlens/snowlens/internal/util"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <conversation-id>",
	Short: "Re-analyze a conversation at a fixed interval",
	Long: `Runs the bottleneck analysis repeatedly while a conversation is in
progress, so slow operations surface as they happen. When --mappings points
at an override file, edits to it take effect without restarting.

Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second,
		"Time between analyses")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %v", watchInterval)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline, l, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	out, err := newFormatter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var updates <-chan []mapping.TableSpec
	if cfg.MappingsFile != "" {
		watcher, err := mapping.NewWatcher(cfg.MappingsFile)
		if err != nil {
			return fmt.Errorf("watching mappings file: %w", err)
		}
		defer watcher.Close()
		updates = watcher.Updates()
	}

	conversationID := args[0]
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	analyzeOnce := func() {
		summary, err := pipeline.AnalyzeConversation(ctx, conversationID)
		if err != nil {
			util.LogWarnf("Analysis failed: %v", err)
			fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
			return
		}
		if err := out.FormatSummary(summary); err != nil {
			util.LogWarnf("Rendering failed: %v", err)
		}
	}

	analyzeOnce()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "stopped")
			return nil
		case specs := <-updates:
			l.SetSpecs(specs)
			util.LogInfof("Table mappings reloaded: %d tables", len(specs))
		case <-ticker.C:
			analyzeOnce()
		}
	}
}
