package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <conversation-id> <conversation-id> [conversation-id...]",
	Short: "Rank 2-10 conversations against each other",
	Long: `Analyzes each conversation and ranks the group: fastest, slowest, most
LLM calls and most errors, with group averages and insights about the
outliers. A conversation that does not exist is listed without metrics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	result, err := pipeline.Compare(context.Background(), args)
	if err != nil {
		return err
	}
	return out.FormatComparison(result)
}
