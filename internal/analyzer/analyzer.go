// Package analyzer computes conversation performance summaries, cross
// conversation comparisons and windowed trends from normalized timed events.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/snowlens/snowlens/internal/config"
	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/util"
)

// topPerCategory caps the slowest-events list kept inside each category stat.
const topPerCategory = 3

// Analyzer turns a conversation's events into a bottleneck summary. It is
// pure: all data comes in as arguments and the thresholds are fixed at
// construction, so analyses are deterministic and unit-testable without any
// backend.
type Analyzer struct {
	thresholds config.Thresholds
}

// New creates an Analyzer with the given rule thresholds.
func New(thresholds config.Thresholds) *Analyzer {
	if thresholds.SlowestLimit <= 0 {
		thresholds.SlowestLimit = 10
	}
	return &Analyzer{thresholds: thresholds}
}

// Analyze builds the full performance summary for one conversation. Zero
// usable events produce a summary with zero counts rather than an error.
func (a *Analyzer) Analyze(conversationID string, events []model.TimedEvent) model.ConversationSummary {
	summary := model.ConversationSummary{
		ConversationID:    conversationID,
		SlowestOperations: []model.TimedEvent{},
		Categories:        []model.CategoryStat{},
		IdleGaps:          []model.IdleGap{},
		Errors:            []model.ErrorEvent{},
		Recommendations:   []string{},
	}

	usable := make([]model.TimedEvent, 0, len(events))
	for _, e := range events {
		if !e.Start.IsZero() {
			usable = append(usable, e)
		}
	}
	summary.EventCount = len(usable)
	if len(usable) == 0 {
		return summary
	}

	// Overall window: earliest start to latest end (or start).
	summary.WindowStart = usable[0].Start
	summary.WindowEnd = usable[0].EffectiveEnd()
	for _, e := range usable[1:] {
		if e.Start.Before(summary.WindowStart) {
			summary.WindowStart = e.Start
		}
		if end := e.EffectiveEnd(); end.After(summary.WindowEnd) {
			summary.WindowEnd = end
		}
	}
	summary.TotalSeconds = summary.WindowEnd.Sub(summary.WindowStart).Seconds()

	for _, e := range usable {
		switch e.Category {
		case model.CategoryLLM:
			summary.LLMCallCount++
		case model.CategoryTool:
			summary.ToolCallCount++
		}
		if e.IsError {
			summary.Errors = append(summary.Errors, model.ErrorEvent{
				Category: e.Category,
				Name:     e.Name,
				At:       e.Start,
				Detail:   e.ErrorDetail,
			})
		}
	}

	timed := durationBearing(usable)
	summary.SlowestOperations = slowestOperations(timed, a.thresholds.SlowestLimit)
	summary.Categories = categoryStats(timed)
	if len(summary.Categories) > 0 {
		summary.SlowestCategory = summary.Categories[0].Category
	}
	summary.IdleGaps = detectIdleGaps(usable, a.thresholds.IdleGap.Seconds())
	summary.Recommendations = a.recommend(&summary)

	return summary
}

// durationBearing filters to events that can participate in duration
// rankings.
func durationBearing(events []model.TimedEvent) []model.TimedEvent {
	timed := make([]model.TimedEvent, 0, len(events))
	for _, e := range events {
		if e.HasDuration && e.Duration > 0 {
			timed = append(timed, e)
		}
	}
	return timed
}

// slowestOperations ranks events descending by duration. Ties go to the
// earlier start so the ranking is stable across runs.
func slowestOperations(timed []model.TimedEvent, limit int) []model.TimedEvent {
	ranked := make([]model.TimedEvent, len(timed))
	copy(ranked, timed)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Duration != ranked[j].Duration {
			return ranked[i].Duration > ranked[j].Duration
		}
		return ranked[i].Start.Before(ranked[j].Start)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// categoryStats groups duration-bearing events by category and sorts the
// groups by summed duration, descending. Each event lands in exactly one
// group, so the group sums always add up to the overall event-duration sum.
func categoryStats(timed []model.TimedEvent) []model.CategoryStat {
	byCategory := make(map[model.Category]*model.CategoryStat)
	for _, e := range timed {
		stat, ok := byCategory[e.Category]
		if !ok {
			stat = &model.CategoryStat{Category: e.Category}
			byCategory[e.Category] = stat
		}
		stat.Count++
		stat.TotalSeconds += e.Duration
	}

	stats := make([]model.CategoryStat, 0, len(byCategory))
	for _, stat := range byCategory {
		stat.AvgSeconds = stat.TotalSeconds / float64(stat.Count)
		stat.Slowest = slowestInCategory(timed, stat.Category)
		stats = append(stats, *stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalSeconds != stats[j].TotalSeconds {
			return stats[i].TotalSeconds > stats[j].TotalSeconds
		}
		return stats[i].Category < stats[j].Category
	})
	return stats
}

func slowestInCategory(timed []model.TimedEvent, category model.Category) []model.TimedEvent {
	var members []model.TimedEvent
	for _, e := range timed {
		if e.Category == category {
			members = append(members, e)
		}
	}
	return slowestOperations(members, topPerCategory)
}

// detectIdleGaps walks the start-sorted timeline and records every silence
// longer than the threshold. Overlapping events produce negative spans which
// are never reported as gaps.
func detectIdleGaps(events []model.TimedEvent, thresholdSeconds float64) []model.IdleGap {
	timeline := make([]model.TimedEvent, len(events))
	copy(timeline, events)
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Start.Before(timeline[j].Start)
	})

	gaps := []model.IdleGap{}
	for i := 0; i < len(timeline)-1; i++ {
		prevEnd := timeline[i].EffectiveEnd()
		gap := timeline[i+1].Start.Sub(prevEnd).Seconds()
		if gap > thresholdSeconds {
			gaps = append(gaps, model.IdleGap{
				Seconds:     gap,
				At:          prevEnd,
				Position:    i,
				AfterEvent:  timeline[i].Name,
				BeforeEvent: timeline[i+1].Name,
			})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Seconds > gaps[j].Seconds
	})
	return gaps
}

// recommend applies the deterministic bottleneck rules to the aggregates.
func (a *Analyzer) recommend(s *model.ConversationSummary) []string {
	recs := []string{}
	th := a.thresholds

	var llmTotal, toolTotal, apiTotal float64
	for _, stat := range s.Categories {
		switch stat.Category {
		case model.CategoryLLM:
			llmTotal = stat.TotalSeconds
		case model.CategoryTool:
			toolTotal = stat.TotalSeconds
		case model.CategoryAPI:
			apiTotal = stat.TotalSeconds
		}
	}

	llmDominates := llmTotal > th.LLMTotalSeconds
	if s.TotalSeconds > 0 && llmTotal/s.TotalSeconds > th.LLMShare {
		llmDominates = true
	}
	if llmDominates {
		recs = append(recs, fmt.Sprintf(
			"LLM calls account for %s of the conversation: consider reducing prompt sizes, using faster models for simple steps, or enabling prompt caching",
			util.FormatSeconds(llmTotal)))
	}

	if s.SlowestCategory == model.CategoryTool && toolTotal > th.CategorySeconds {
		recs = append(recs, fmt.Sprintf(
			"Tool executions are the slowest category (%s total): review tool implementations and cache repeated lookups",
			util.FormatSeconds(toolTotal)))
	}

	if s.SlowestCategory == model.CategoryAPI && apiTotal > th.CategorySeconds {
		recs = append(recs, fmt.Sprintf(
			"Outbound API calls are the slowest category (%s total): batch calls where possible and check endpoint latency",
			util.FormatSeconds(apiTotal)))
	}

	if len(s.IdleGaps) >= th.GapAlertCount || (len(s.IdleGaps) > 0 && s.IdleGaps[0].Seconds > th.LargeGapSeconds) {
		recs = append(recs, fmt.Sprintf(
			"%d idle periods detected (largest %s): investigate what the conversation is waiting on between events",
			len(s.IdleGaps), util.FormatSeconds(s.IdleGaps[0].Seconds)))
	}

	if len(s.Errors) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d failed events detected: errors often cause retries and add hidden latency", len(s.Errors)))
	}

	return recs
}

// MetricsFrom flattens a summary into the figures the comparator and trend
// analyzer rank on.
func MetricsFrom(s model.ConversationSummary) model.ConversationMetrics {
	m := model.ConversationMetrics{
		ConversationID: s.ConversationID,
		TotalSeconds:   s.TotalSeconds,
		EventCount:     s.EventCount,
		LLMCount:       s.LLMCallCount,
		ToolCount:      s.ToolCallCount,
		ErrorCount:     len(s.Errors),
		PartialData:    s.PartialData,
		Started:        s.WindowStart,
	}

	for _, stat := range s.Categories {
		switch stat.Category {
		case model.CategoryLLM:
			m.LLMTotalSeconds = stat.TotalSeconds
			m.LLMAvgSeconds = stat.AvgSeconds
			if len(stat.Slowest) > 0 {
				m.LLMMaxSeconds = stat.Slowest[0].Duration
			}
		case model.CategoryTool:
			m.ToolTotalSeconds = stat.TotalSeconds
			m.ToolAvgSeconds = stat.AvgSeconds
			if len(stat.Slowest) > 0 {
				m.ToolMaxSeconds = stat.Slowest[0].Duration
			}
		}
	}

	return m
}
