package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowlens/snowlens/internal/analyzer"
)

var (
	trendsWindow  time.Duration
	trendsUsecase string
	trendsLimit   int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Detect performance degradation across recent conversations",
	Long: `Analyzes every conversation started inside the time window, splits them
into recency buckets and compares the oldest against the newest to decide
whether performance is degrading, improving or stable. Conversations that
deviate far from the mean are flagged as outliers.`,
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)

	trendsCmd.Flags().DurationVarP(&trendsWindow, "window", "w", 24*time.Hour,
		"How far back to look (e.g. 6h, 24h, 168h)")
	trendsCmd.Flags().StringVar(&trendsUsecase, "usecase", "",
		"Only conversations of this use case (substring match)")
	trendsCmd.Flags().IntVar(&trendsLimit, "limit", 0,
		"Maximum conversations to analyze (0 = default of 50)")
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	out, err := newFormatter()
	if err != nil {
		return err
	}

	result, err := pipeline.Trends(context.Background(), analyzer.TrendQuery{
		Window:  trendsWindow,
		Usecase: trendsUsecase,
		Limit:   trendsLimit,
	})
	if err != nil {
		return err
	}
	return out.FormatTrend(result)
}
