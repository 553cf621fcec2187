package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/util"
)

const gapDisplayLimit = 5

var (
	headerLine = strings.Repeat("=", 64)
	red        = color.New(color.FgRed).SprintFunc()
	green      = color.New(color.FgGreen).SprintFunc()
	yellow     = color.New(color.FgYellow).SprintFunc()
	bold       = color.New(color.Bold).SprintFunc()
)

// TextFormatter renders a sectioned human-readable report.
type TextFormatter struct {
	w io.Writer
}

func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{w: w}
}

func (f *TextFormatter) header(title string) {
	fmt.Fprintln(f.w, headerLine)
	fmt.Fprintln(f.w, bold(title))
	fmt.Fprintln(f.w, headerLine)
}

func (f *TextFormatter) partialDataNote(missing []string) {
	if len(missing) == 0 {
		return
	}
	fmt.Fprintln(f.w, yellow(fmt.Sprintf(
		"Warning: partial data, %d tables could not be read: %s",
		len(missing), strings.Join(missing, ", "))))
	fmt.Fprintln(f.w)
}

func (f *TextFormatter) FormatSummary(s *model.ConversationSummary) error {
	f.header("Conversation Performance Analysis")
	fmt.Fprintf(f.w, "Conversation: %s\n", s.ConversationID)
	if s.EventCount == 0 {
		fmt.Fprintln(f.w, "No events found for this conversation.")
		f.partialDataNote(s.MissingTables)
		return nil
	}

	fmt.Fprintf(f.w, "Window:       %s to %s\n",
		util.FormatSnowTime(s.WindowStart), util.FormatSnowTime(s.WindowEnd))
	fmt.Fprintf(f.w, "Total time:   %s\n", util.FormatSeconds(s.TotalSeconds))
	fmt.Fprintf(f.w, "Events:       %d (%d LLM calls, %d tool executions)\n",
		s.EventCount, s.LLMCallCount, s.ToolCallCount)
	if line := recordCountLine(s.RecordCounts); line != "" {
		fmt.Fprintf(f.w, "Records:      %s\n", line)
	}
	fmt.Fprintln(f.w)
	f.partialDataNote(s.MissingTables)

	if len(s.SlowestOperations) > 0 {
		fmt.Fprintln(f.w, bold("Slowest operations"))
		t := newTable([]string{"#", "Category", "Operation", "Duration", "Started"}, 2)
		for i, op := range s.SlowestOperations {
			t.addRow(
				fmt.Sprintf("%d", i+1),
				string(op.Category),
				op.Name,
				util.FormatSeconds(op.Duration),
				util.FormatSnowTime(op.Start),
			)
		}
		t.render(f.w)
		fmt.Fprintln(f.w)
	}

	if len(s.Categories) > 0 {
		fmt.Fprintln(f.w, bold("Time by category"))
		t := newTable([]string{"Category", "Count", "Total", "Average", "Slowest"}, 0, 4)
		for _, stat := range s.Categories {
			slowest := ""
			if len(stat.Slowest) > 0 {
				slowest = stat.Slowest[0].Name
			}
			t.addRow(
				string(stat.Category),
				fmt.Sprintf("%d", stat.Count),
				util.FormatSeconds(stat.TotalSeconds),
				util.FormatSeconds(stat.AvgSeconds),
				slowest,
			)
		}
		t.render(f.w)
		fmt.Fprintln(f.w)
	}

	if len(s.IdleGaps) > 0 {
		fmt.Fprintf(f.w, "%s (%d total)\n", bold("Idle periods"), len(s.IdleGaps))
		gaps := s.IdleGaps
		if len(gaps) > gapDisplayLimit {
			gaps = gaps[:gapDisplayLimit]
		}
		for _, gap := range gaps {
			fmt.Fprintf(f.w, "  %s between %q and %q\n",
				util.FormatSeconds(gap.Seconds), gap.AfterEvent, gap.BeforeEvent)
		}
		fmt.Fprintln(f.w)
	}

	if len(s.Errors) > 0 {
		fmt.Fprintln(f.w, bold("Errors"))
		for _, e := range s.Errors {
			line := fmt.Sprintf("  [%s] %s", e.Category, e.Name)
			if e.Detail != "" {
				line += ": " + e.Detail
			}
			fmt.Fprintln(f.w, red(line))
		}
		fmt.Fprintln(f.w)
	}

	if len(s.Recommendations) > 0 {
		fmt.Fprintln(f.w, bold("Recommendations"))
		for i, rec := range s.Recommendations {
			fmt.Fprintf(f.w, "  %d. %s\n", i+1, rec)
		}
	}
	return nil
}

func (f *TextFormatter) FormatComparison(c *model.ComparisonResult) error {
	f.header("Conversation Comparison")
	f.partialDataNote(c.MissingTables)

	t := newTable([]string{"Conversation", "Total", "Events", "LLM calls", "LLM time", "Tools", "Errors"}, 0)
	for _, m := range c.Conversations {
		if m.EventCount == 0 && m.TotalSeconds == 0 {
			t.addRow(m.ConversationID, "no data", "-", "-", "-", "-", "-")
			continue
		}
		t.addRow(
			m.ConversationID,
			util.FormatSeconds(m.TotalSeconds),
			fmt.Sprintf("%d", m.EventCount),
			fmt.Sprintf("%d", m.LLMCount),
			util.FormatSeconds(m.LLMTotalSeconds),
			fmt.Sprintf("%d", m.ToolCount),
			fmt.Sprintf("%d", m.ErrorCount),
		)
	}
	t.render(f.w)
	fmt.Fprintln(f.w)

	if c.FastestID != "" {
		fmt.Fprintf(f.w, "Fastest:        %s\n", green(c.FastestID))
		fmt.Fprintf(f.w, "Slowest:        %s\n", red(c.SlowestID))
		fmt.Fprintf(f.w, "Most LLM calls: %s\n", c.MostLLMCallsID)
		if c.MostErrorsID != "" {
			fmt.Fprintf(f.w, "Most errors:    %s\n", red(c.MostErrorsID))
		}
		fmt.Fprintf(f.w, "Group average:  %s, %.1f LLM calls, %.1f tool executions\n",
			util.FormatSeconds(c.MeanTotalSeconds), c.MeanLLMCount, c.MeanToolCount)
	} else {
		fmt.Fprintln(f.w, "No conversation produced timing data; rankings are unavailable.")
	}

	if len(c.Insights) > 0 {
		fmt.Fprintln(f.w)
		fmt.Fprintln(f.w, bold("Insights"))
		for _, insight := range c.Insights {
			fmt.Fprintf(f.w, "  - %s\n", insight)
		}
	}
	return nil
}

func (f *TextFormatter) FormatTrend(t *model.TrendResult) error {
	f.header("Performance Trend Analysis")
	fmt.Fprintf(f.w, "Window:   %s to %s\n",
		util.FormatSnowTime(t.From), util.FormatSnowTime(t.To))
	if t.Usecase != "" {
		fmt.Fprintf(f.w, "Use case: %s\n", t.Usecase)
	}
	fmt.Fprintf(f.w, "Conversations: %d found, %d with timing data\n", t.ConversationsSeen, t.Analyzed)
	fmt.Fprintln(f.w)
	f.partialDataNote(t.MissingTables)

	if t.Analyzed == 0 {
		fmt.Fprintln(f.w, "Nothing to analyze in this window.")
		return nil
	}

	fmt.Fprintln(f.w, bold("Duration statistics"))
	fmt.Fprintf(f.w, "  mean %s, median %s, min %s, max %s\n",
		util.FormatSeconds(t.Stats.MeanSeconds), util.FormatSeconds(t.Stats.MedianSeconds),
		util.FormatSeconds(t.Stats.MinSeconds), util.FormatSeconds(t.Stats.MaxSeconds))
	fmt.Fprintf(f.w, "  %.1f LLM calls per conversation, %d errors across %d LLM calls\n",
		t.Stats.MeanLLMCount, t.Stats.TotalErrors, t.Stats.TotalLLMCalls)
	fmt.Fprintln(f.w)

	if len(t.Buckets) > 0 {
		fmt.Fprintln(f.w, bold("By recency"))
		bt := newTable([]string{"Bucket", "Conversations", "Avg duration", "Avg LLM calls", "Errors"}, 0)
		for _, b := range t.Buckets {
			bt.addRow(
				b.Label,
				fmt.Sprintf("%d", b.Conversations),
				util.FormatSeconds(b.AvgSeconds),
				fmt.Sprintf("%.1f", b.AvgLLMCount),
				fmt.Sprintf("%d", b.Errors),
			)
		}
		bt.render(f.w)
		fmt.Fprintln(f.w)
	}

	fmt.Fprintf(f.w, "Verdict: %s", verdictLabel(t.Verdict))
	if t.Verdict == model.VerdictDegradation || t.Verdict == model.VerdictImprovement {
		fmt.Fprintf(f.w, " (%+.1f%% from first to last bucket)", t.ChangePercent)
	}
	fmt.Fprintln(f.w)

	if len(t.Outliers) > 0 {
		fmt.Fprintln(f.w)
		fmt.Fprintln(f.w, bold("Outliers"))
		for _, o := range t.Outliers {
			fmt.Fprintf(f.w, "  %s: %s (%.1fx %s than the mean)\n",
				o.ConversationID, util.FormatSeconds(o.TotalSeconds), o.Ratio, outlierDirection(o.Kind))
		}
	}
	return nil
}

// recordCountLine lists the tables that contributed records, busiest first.
func recordCountLine(counts map[string]int) string {
	type entry struct {
		name  string
		count int
	}
	var entries []entry
	for name, count := range counts {
		if count > 0 {
			entries = append(entries, entry{name, count})
		}
	}
	if len(entries) == 0 {
		return ""
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s %d", e.name, e.count)
	}
	return strings.Join(parts, ", ")
}

func verdictLabel(v model.TrendVerdict) string {
	switch v {
	case model.VerdictDegradation:
		return red("performance is degrading")
	case model.VerdictImprovement:
		return green("performance is improving")
	case model.VerdictStable:
		return "performance is stable"
	default:
		return yellow("not enough data for a trend verdict")
	}
}

func outlierDirection(kind string) string {
	if kind == "fast" {
		return "faster"
	}
	return "slower"
}
