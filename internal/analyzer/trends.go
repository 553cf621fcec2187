package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/util"
)

const (
	trendDefaultLimit = 50
	trendMaxLimit     = 500
	trendOutlierCap   = 10
	trendBucketCount  = 4
)

var bucketLabels = [trendBucketCount]string{"First 25%", "Second 25%", "Third 25%", "Last 25%"}

// TrendQuery selects the conversations a trend analysis runs over.
type TrendQuery struct {
	// Window is how far back from now to look.
	Window time.Duration
	// Usecase optionally filters execution plans by use-case name.
	Usecase string
	// Limit caps the number of conversations analyzed. Zero means the
	// default of 50.
	Limit int
}

// Trends analyzes performance across all conversations started inside the
// time window, bucketing them by recency to detect degradation or
// improvement. With fewer than four usable conversations only the aggregate
// statistics are reported and no trend verdict is given.
func (p *Pipeline) Trends(ctx context.Context, query TrendQuery) (*model.TrendResult, error) {
	if query.Window <= 0 {
		return nil, model.InvalidInputf("time window must be positive, got %v", query.Window)
	}
	if query.Limit == 0 {
		query.Limit = trendDefaultLimit
	}
	if query.Limit < 0 || query.Limit > trendMaxLimit {
		return nil, model.InvalidInputf("limit must be between 1 and %d, got %d", trendMaxLimit, query.Limit)
	}

	now := time.Now().UTC()
	since := now.Add(-query.Window)

	plans, err := p.loader.ListExecutionPlans(ctx, since, query.Usecase, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	result := &model.TrendResult{
		From:              since,
		To:                now,
		Usecase:           query.Usecase,
		ConversationsSeen: len(plans),
		Verdict:           model.VerdictInsufficient,
	}
	if len(plans) == 0 {
		return result, nil
	}

	missing := make(map[string]bool)
	var metrics []model.ConversationMetrics
	for _, plan := range plans {
		summary, err := p.AnalyzeConversation(ctx, plan.SysID)
		if err != nil {
			if model.CodeOf(err) == model.CodeNotFound {
				continue
			}
			return nil, fmt.Errorf("analyzing %s: %w", plan.SysID, err)
		}

		m := MetricsFrom(*summary)
		if !plan.Created.IsZero() {
			m.Started = plan.Created
		}
		if m.TotalSeconds <= 0 {
			// No usable timing data; the conversation was seen but cannot
			// participate in duration statistics.
			continue
		}
		metrics = append(metrics, m)

		if summary.PartialData {
			result.PartialData = true
			for _, table := range summary.MissingTables {
				missing[table] = true
			}
		}
	}

	for table := range missing {
		result.MissingTables = append(result.MissingTables, table)
	}
	sort.Strings(result.MissingTables)

	buildTrend(result, metrics, p.analyzer.thresholds.TrendChange,
		p.analyzer.thresholds.SlowOutlier, p.analyzer.thresholds.FastOutlier)

	util.LogInfof("Trend analysis: %d conversations seen, %d analyzed, verdict=%s",
		result.ConversationsSeen, result.Analyzed, result.Verdict)

	return result, nil
}

// buildTrend fills statistics, recency buckets, verdict and outliers from
// the per-conversation metrics. Split out from Trends so the trend math is
// testable on synthetic metric sets.
func buildTrend(result *model.TrendResult, metrics []model.ConversationMetrics, changeThreshold, slowOutlier, fastOutlier float64) {
	result.Analyzed = len(metrics)
	if len(metrics) == 0 {
		return
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Started.Before(metrics[j].Started)
	})
	result.Conversations = metrics

	result.Stats = trendStats(metrics)
	result.Outliers = trendOutliers(metrics, result.Stats.MeanSeconds, slowOutlier, fastOutlier)

	// Quartile bucketing needs at least one conversation per bucket;
	// below that no trend direction is claimed.
	if len(metrics) < trendBucketCount {
		result.Verdict = model.VerdictInsufficient
		return
	}

	quarter := len(metrics) / trendBucketCount
	for i := 0; i < trendBucketCount; i++ {
		lo := i * quarter
		hi := lo + quarter
		if i == trendBucketCount-1 {
			hi = len(metrics)
		}
		result.Buckets = append(result.Buckets, bucketStats(bucketLabels[i], metrics[lo:hi]))
	}

	first := result.Buckets[0].AvgSeconds
	last := result.Buckets[trendBucketCount-1].AvgSeconds
	if first <= 0 {
		result.Verdict = model.VerdictStable
		return
	}

	change := (last - first) / first
	result.ChangePercent = change * 100
	switch {
	case change > changeThreshold:
		result.Verdict = model.VerdictDegradation
	case change < -changeThreshold:
		result.Verdict = model.VerdictImprovement
	default:
		result.Verdict = model.VerdictStable
	}
}

func trendStats(metrics []model.ConversationMetrics) model.TrendStats {
	durations := make([]float64, len(metrics))
	stats := model.TrendStats{}
	var llmSum float64

	for i, m := range metrics {
		durations[i] = m.TotalSeconds
		llmSum += float64(m.LLMCount)
		stats.TotalLLMCalls += m.LLMCount
		stats.TotalErrors += m.ErrorCount
	}

	sort.Float64s(durations)
	n := len(durations)
	stats.MinSeconds = durations[0]
	stats.MaxSeconds = durations[n-1]
	stats.MedianSeconds = durations[n/2]
	if n%2 == 0 {
		stats.MedianSeconds = (durations[n/2-1] + durations[n/2]) / 2
	}

	var sum float64
	for _, d := range durations {
		sum += d
	}
	stats.MeanSeconds = sum / float64(n)
	stats.MeanLLMCount = llmSum / float64(n)
	if stats.TotalLLMCalls > 0 {
		stats.ErrorRate = float64(stats.TotalErrors) / float64(stats.TotalLLMCalls)
	}

	return stats
}

func bucketStats(label string, metrics []model.ConversationMetrics) model.TrendBucket {
	bucket := model.TrendBucket{Label: label, Conversations: len(metrics)}
	if len(metrics) == 0 {
		return bucket
	}

	var durSum, llmSum float64
	for _, m := range metrics {
		durSum += m.TotalSeconds
		llmSum += float64(m.LLMCount)
		bucket.Errors += m.ErrorCount
	}
	bucket.AvgSeconds = durSum / float64(len(metrics))
	bucket.AvgLLMCount = llmSum / float64(len(metrics))
	return bucket
}

func trendOutliers(metrics []model.ConversationMetrics, mean, slowOutlier, fastOutlier float64) []model.TrendOutlier {
	if mean <= 0 {
		return nil
	}

	var outliers []model.TrendOutlier
	for _, m := range metrics {
		switch {
		case m.TotalSeconds > mean*slowOutlier:
			outliers = append(outliers, model.TrendOutlier{
				ConversationID: m.ConversationID,
				TotalSeconds:   m.TotalSeconds,
				Ratio:          m.TotalSeconds / mean,
				Kind:           "slow",
				Started:        m.Started,
			})
		case m.TotalSeconds > 0 && m.TotalSeconds < mean*fastOutlier:
			outliers = append(outliers, model.TrendOutlier{
				ConversationID: m.ConversationID,
				TotalSeconds:   m.TotalSeconds,
				Ratio:          mean / m.TotalSeconds,
				Kind:           "fast",
				Started:        m.Started,
			})
		}
	}

	sort.SliceStable(outliers, func(i, j int) bool {
		return outliers[i].Ratio > outliers[j].Ratio
	})
	if len(outliers) > trendOutlierCap {
		outliers = outliers[:trendOutlierCap]
	}
	return outliers
}
