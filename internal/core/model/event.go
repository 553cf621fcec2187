package model

import (
	"fmt"
	"time"
)

// Category classifies a timed event by the kind of platform activity that
// produced it. The set is closed: aggregation and reporting rely on every
// event carrying one of these values.
type Category string

const (
	CategoryLLM           Category = "llm"
	CategoryConversation  Category = "conversation"
	CategoryOrchestration Category = "orchestration"
	CategoryTool          Category = "tool"
	CategorySkill         Category = "skill"
	CategoryIntegration   Category = "integration"
	CategorySearch        Category = "search"
	CategoryAPI           Category = "api"
)

// AllCategories lists every valid category in report order.
var AllCategories = []Category{
	CategoryLLM,
	CategoryConversation,
	CategoryOrchestration,
	CategoryTool,
	CategorySkill,
	CategoryIntegration,
	CategorySearch,
	CategoryAPI,
}

// ParseCategory validates a category string, as used in mapping files.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown event category: %q", s)
}

// TimedEvent is the uniform shape every source record is normalized into.
// Durations are kept in seconds to match how the platform reports elapsed
// time; an event without a usable duration has HasDuration false and never
// contributes to duration rankings.
type TimedEvent struct {
	Category       Category  `json:"category"`
	Name           string    `json:"name"`
	Table          string    `json:"table"`
	SysID          string    `json:"sysId"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Duration       float64   `json:"durationSeconds"`
	HasDuration    bool      `json:"hasDuration"`
	IsError        bool      `json:"isError"`
	ErrorDetail    string    `json:"errorDetail,omitempty"`
	ConversationID string    `json:"conversationId"`
}

// EffectiveEnd returns the event end time, falling back to the start time
// when no explicit end was recorded. Used for window and gap computation.
func (e TimedEvent) EffectiveEnd() time.Time {
	if !e.End.IsZero() {
		return e.End
	}
	return e.Start
}
