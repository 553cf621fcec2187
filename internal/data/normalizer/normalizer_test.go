package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/data/mapping"
	"github.com/snowlens/snowlens/internal/data/snowclient"
)

func record(fields map[string]string) snowclient.Record {
	rec := make(snowclient.Record, len(fields))
	for k, v := range fields {
		rec[k] = snowclient.Field{Value: v}
	}
	return rec
}

func llmSpec() mapping.TableSpec {
	return mapping.TableSpec{
		Name:          "Generative AI Logs",
		Table:         "sys_generative_ai_log",
		Query:         "conversation=$ID",
		StartField:    "started_at",
		EndField:      "completed_at",
		DurationField: "time_taken",
		LabelField:    "definition",
		ErrorFields:   []string{"error", "error_code"},
		Category:      model.CategoryLLM,
	}
}

func toolSpec() mapping.TableSpec {
	return mapping.TableSpec{
		Name:        "Tool Executions",
		Table:       "sn_aia_tools_execution",
		Query:       "execution_plan=$ID",
		StartField:  "sys_created_on",
		EndField:    "sys_updated_on",
		LabelField:  "tool",
		LabelPrefix: "Tool: ",
		ErrorFields: []string{"error_message"},
		Category:    model.CategoryTool,
	}
}

func TestNormalizeDurationField(t *testing.T) {
	event, ok := Normalize(llmSpec(), record(map[string]string{
		"sys_id":       "a1",
		"started_at":   "2025-03-01 12:00:00",
		"completed_at": "2025-03-01 12:00:30",
		"time_taken":   "4.2",
		"definition":   "Topic Discovery",
	}), "conv1")
	require.True(t, ok)

	// The precomputed field wins over end-start; no double counting.
	assert.Equal(t, 4.2, event.Duration)
	assert.True(t, event.HasDuration)
	assert.Equal(t, model.CategoryLLM, event.Category)
	assert.Equal(t, "Topic Discovery", event.Name)
	assert.Equal(t, "conv1", event.ConversationID)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 30, 0, time.UTC), event.End)
	assert.False(t, event.IsError)
}

func TestNormalizeEndMinusStart(t *testing.T) {
	event, ok := Normalize(toolSpec(), record(map[string]string{
		"sys_id":         "b2",
		"tool":           "lookup_user",
		"sys_created_on": "2025-03-01 12:00:00",
		"sys_updated_on": "2025-03-01 12:00:07",
	}), "conv1")
	require.True(t, ok)

	assert.Equal(t, 7.0, event.Duration)
	assert.True(t, event.HasDuration)
	assert.Equal(t, "Tool: lookup_user", event.Name)
}

func TestNormalizeMissingStartSkipped(t *testing.T) {
	_, ok := Normalize(toolSpec(), record(map[string]string{
		"sys_id":         "c3",
		"sys_updated_on": "2025-03-01 12:00:07",
	}), "conv1")
	assert.False(t, ok)

	_, ok = Normalize(toolSpec(), record(map[string]string{
		"sys_created_on": "not a date",
	}), "conv1")
	assert.False(t, ok)
}

func TestNormalizeNegativeSpanHasNoDuration(t *testing.T) {
	event, ok := Normalize(toolSpec(), record(map[string]string{
		"sys_created_on": "2025-03-01 12:00:10",
		"sys_updated_on": "2025-03-01 12:00:05",
	}), "conv1")
	require.True(t, ok)

	assert.False(t, event.HasDuration)
	assert.Equal(t, 0.0, event.Duration)
}

func TestNormalizeStartOnly(t *testing.T) {
	spec := mapping.TableSpec{
		Name:       "Messages",
		Table:      "sys_cs_message",
		Query:      "conversation=$ID",
		StartField: "sys_created_on",
		Category:   model.CategoryConversation,
	}
	event, ok := Normalize(spec, record(map[string]string{
		"sys_created_on": "2025-03-01 12:00:00",
	}), "conv1")
	require.True(t, ok)

	assert.False(t, event.HasDuration)
	assert.True(t, event.End.IsZero())
	assert.Equal(t, event.Start, event.EffectiveEnd())
	assert.Equal(t, "Messages", event.Name)
}

func TestNormalizeErrorFields(t *testing.T) {
	event, ok := Normalize(llmSpec(), record(map[string]string{
		"started_at": "2025-03-01 12:00:00",
		"time_taken": "2.0",
		"error":      "",
		"error_code": "LLM_TIMEOUT",
	}), "conv1")
	require.True(t, ok)

	assert.True(t, event.IsError)
	assert.Equal(t, "LLM_TIMEOUT", event.ErrorDetail)
}

func TestNormalizeLabelFallback(t *testing.T) {
	event, ok := Normalize(toolSpec(), record(map[string]string{
		"sys_created_on": "2025-03-01 12:00:00",
		"tool":           "  ",
	}), "conv1")
	require.True(t, ok)
	assert.Equal(t, "Tool Executions", event.Name)
}
