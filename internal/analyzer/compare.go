package analyzer

import (
	"context"
	"fmt"

	"github.com/snowlens/snowlens/internal/core/model"
)

const (
	compareMin = 2
	compareMax = 10
)

// Compare runs the analysis pipeline over 2-10 conversations and ranks them
// against each other. Rankings are purely descriptive. A conversation that
// does not exist is listed with zero metrics and excluded from rankings;
// only backend unavailability fails the whole call.
func (p *Pipeline) Compare(ctx context.Context, conversationIDs []string) (*model.ComparisonResult, error) {
	if len(conversationIDs) < compareMin || len(conversationIDs) > compareMax {
		return nil, model.InvalidInputf("expected between %d and %d conversation ids, got %d",
			compareMin, compareMax, len(conversationIDs))
	}

	result := &model.ComparisonResult{
		Conversations: make([]model.ConversationMetrics, 0, len(conversationIDs)),
	}
	missing := make(map[string]bool)

	for _, id := range conversationIDs {
		summary, err := p.AnalyzeConversation(ctx, id)
		if err != nil {
			switch model.CodeOf(err) {
			case model.CodeNotFound:
				result.Conversations = append(result.Conversations, model.ConversationMetrics{ConversationID: id})
				continue
			default:
				return nil, fmt.Errorf("comparing %s: %w", id, err)
			}
		}

		result.Conversations = append(result.Conversations, MetricsFrom(*summary))
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

	rankConversations(result)
	return result, nil
}

// rankConversations fills the ranking and average fields from the metrics
// of conversations that produced timing data.
func rankConversations(r *model.ComparisonResult) {
	var valid []model.ConversationMetrics
	for _, m := range r.Conversations {
		if m.TotalSeconds > 0 {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		return
	}

	fastest, slowest, mostLLM := valid[0], valid[0], valid[0]
	var totalSum, llmSum, toolSum float64
	mostErrors := model.ConversationMetrics{}

	for _, m := range valid {
		if m.TotalSeconds < fastest.TotalSeconds {
			fastest = m
		}
		if m.TotalSeconds > slowest.TotalSeconds {
			slowest = m
		}
		if m.LLMCount > mostLLM.LLMCount {
			mostLLM = m
		}
		if m.ErrorCount > mostErrors.ErrorCount {
			mostErrors = m
		}
		totalSum += m.TotalSeconds
		llmSum += float64(m.LLMCount)
		toolSum += float64(m.ToolCount)
	}

	n := float64(len(valid))
	r.FastestID = fastest.ConversationID
	r.SlowestID = slowest.ConversationID
	r.MostLLMCallsID = mostLLM.ConversationID
	if mostErrors.ErrorCount > 0 {
		r.MostErrorsID = mostErrors.ConversationID
	}
	r.MeanTotalSeconds = totalSum / n
	r.MeanLLMCount = llmSum / n
	r.MeanToolCount = toolSum / n

	r.Insights = compareInsights(r, fastest, slowest)
}

func compareInsights(r *model.ComparisonResult, fastest, slowest model.ConversationMetrics) []string {
	var insights []string

	if slowest.TotalSeconds > r.MeanTotalSeconds*1.5 {
		insights = append(insights, fmt.Sprintf(
			"%s is significantly slower than the group average (%.2fs vs %.2fs)",
			slowest.ConversationID, slowest.TotalSeconds, r.MeanTotalSeconds))
		if float64(slowest.LLMCount) > r.MeanLLMCount*1.5 {
			insights = append(insights, fmt.Sprintf(
				"%s made %d LLM calls against an average of %.1f",
				slowest.ConversationID, slowest.LLMCount, r.MeanLLMCount))
		}
		if slowest.LLMMaxSeconds > 5 {
			insights = append(insights, fmt.Sprintf(
				"the slowest LLM call in %s took %.2fs",
				slowest.ConversationID, slowest.LLMMaxSeconds))
		}
	}

	if fastest.TotalSeconds < r.MeanTotalSeconds*0.5 {
		insights = append(insights, fmt.Sprintf(
			"%s is significantly faster than the group average and can serve as a performance baseline",
			fastest.ConversationID))
	}

	return insights
}
