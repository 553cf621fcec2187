package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <conversation-id>",
	Short: "Find the performance bottlenecks of one conversation",
	Long: `Loads every execution trace a conversation left across the instance,
builds a unified timeline and reports the slowest operations, time spent per
activity category, idle periods, failed events and tuning recommendations.

The identifier is the sys_id of an execution plan or a conversation record.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	summary, err := pipeline.AnalyzeConversation(context.Background(), args[0])
	if err != nil {
		return err
	}
	return out.FormatSummary(summary)
}
