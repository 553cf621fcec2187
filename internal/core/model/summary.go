package model

import "time"

// CategoryStat aggregates all duration-bearing events of one category.
type CategoryStat struct {
	Category     Category     `json:"category"`
	Count        int          `json:"count"`
	TotalSeconds float64      `json:"totalSeconds"`
	AvgSeconds   float64      `json:"avgSeconds"`
	Slowest      []TimedEvent `json:"slowest,omitempty"` // top 3 within the category
}

// IdleGap is a stretch of the conversation timeline with no recorded
// activity between two consecutive events.
type IdleGap struct {
	Seconds     float64   `json:"seconds"`
	At          time.Time `json:"at"`       // when the gap opened
	Position    int       `json:"position"` // index of the preceding event in the start-sorted timeline
	AfterEvent  string    `json:"afterEvent"`
	BeforeEvent string    `json:"beforeEvent"`
}

// ErrorEvent annotates a failed event with its place in the timeline.
type ErrorEvent struct {
	Category Category  `json:"category"`
	Name     string    `json:"name"`
	At       time.Time `json:"at"`
	Detail   string    `json:"detail,omitempty"`
}

// ConversationSummary is the full bottleneck analysis of one conversation.
// A conversation with no usable events yields a summary with zero counts and
// empty lists; "no data" is representable, not an error.
type ConversationSummary struct {
	ConversationID    string         `json:"conversationId"`
	WindowStart       time.Time      `json:"windowStart"`
	WindowEnd         time.Time      `json:"windowEnd"`
	TotalSeconds      float64        `json:"totalSeconds"`
	EventCount        int            `json:"eventCount"`
	RecordCounts      map[string]int `json:"recordCounts,omitempty"` // records loaded per source table
	SlowestOperations []TimedEvent   `json:"slowestOperations"`
	Categories        []CategoryStat `json:"categories"` // sorted by total duration, descending
	SlowestCategory   Category       `json:"slowestCategory,omitempty"`
	IdleGaps          []IdleGap      `json:"idleGaps"` // sorted by gap size, descending
	Errors            []ErrorEvent   `json:"errors"`
	LLMCallCount      int            `json:"llmCallCount"`
	ToolCallCount     int            `json:"toolCallCount"`
	Recommendations   []string       `json:"recommendations"`
	PartialData       bool           `json:"partialData"`
	MissingTables     []string       `json:"missingTables,omitempty"`
}

// ConversationMetrics flattens one conversation's summary into the numbers
// the comparator ranks on.
type ConversationMetrics struct {
	ConversationID   string  `json:"conversationId"`
	TotalSeconds     float64 `json:"totalSeconds"`
	EventCount       int     `json:"eventCount"`
	LLMCount         int     `json:"llmCount"`
	LLMTotalSeconds  float64 `json:"llmTotalSeconds"`
	LLMAvgSeconds    float64 `json:"llmAvgSeconds"`
	LLMMaxSeconds    float64 `json:"llmMaxSeconds"`
	ToolCount        int     `json:"toolCount"`
	ToolTotalSeconds float64 `json:"toolTotalSeconds"`
	ToolAvgSeconds   float64 `json:"toolAvgSeconds"`
	ToolMaxSeconds   float64 `json:"toolMaxSeconds"`
	ErrorCount       int     `json:"errorCount"`
	PartialData      bool    `json:"partialData"`
	Started          time.Time `json:"started"`
}

// ComparisonResult ranks 2-10 conversations against each other. Rankings are
// descriptive only; conversations without timing data are listed but excluded
// from rankings and averages.
type ComparisonResult struct {
	Conversations    []ConversationMetrics `json:"conversations"` // in input order
	FastestID        string                `json:"fastestId,omitempty"`
	SlowestID        string                `json:"slowestId,omitempty"`
	MostLLMCallsID   string                `json:"mostLlmCallsId,omitempty"`
	MostErrorsID     string                `json:"mostErrorsId,omitempty"`
	MeanTotalSeconds float64               `json:"meanTotalSeconds"`
	MeanLLMCount     float64               `json:"meanLlmCount"`
	MeanToolCount    float64               `json:"meanToolCount"`
	Insights         []string              `json:"insights,omitempty"`
	PartialData      bool                  `json:"partialData"`
	MissingTables    []string              `json:"missingTables,omitempty"`
}

// TrendVerdict is the direction of performance change across a time window.
type TrendVerdict string

const (
	VerdictDegradation  TrendVerdict = "degradation"
	VerdictImprovement  TrendVerdict = "improvement"
	VerdictStable       TrendVerdict = "stable"
	VerdictInsufficient TrendVerdict = "insufficient_data"
)

// TrendStats aggregates duration and error figures across a conversation set.
type TrendStats struct {
	MeanSeconds   float64 `json:"meanSeconds"`
	MinSeconds    float64 `json:"minSeconds"`
	MaxSeconds    float64 `json:"maxSeconds"`
	MedianSeconds float64 `json:"medianSeconds"`
	MeanLLMCount  float64 `json:"meanLlmCount"`
	TotalLLMCalls int     `json:"totalLlmCalls"`
	TotalErrors   int     `json:"totalErrors"`
	ErrorRate     float64 `json:"errorRate"` // errors per LLM call, 0..1
}

// TrendBucket is one recency quartile of the analyzed conversations.
type TrendBucket struct {
	Label         string  `json:"label"`
	Conversations int     `json:"conversations"`
	AvgSeconds    float64 `json:"avgSeconds"`
	AvgLLMCount   float64 `json:"avgLlmCount"`
	Errors        int     `json:"errors"`
}

// TrendOutlier is a conversation whose duration deviates from the mean by
// more than the configured multipliers.
type TrendOutlier struct {
	ConversationID string    `json:"conversationId"`
	TotalSeconds   float64   `json:"totalSeconds"`
	Ratio          float64   `json:"ratio"` // deviation factor relative to the mean
	Kind           string    `json:"kind"`  // "slow" or "fast"
	Started        time.Time `json:"started"`
}

// TrendResult is the windowed trend analysis output.
type TrendResult struct {
	From              time.Time             `json:"from"`
	To                time.Time             `json:"to"`
	Usecase           string                `json:"usecase,omitempty"`
	ConversationsSeen int                   `json:"conversationsSeen"` // matched the window
	Analyzed          int                   `json:"analyzed"`          // had usable timing data
	Stats             TrendStats            `json:"stats"`
	Buckets           []TrendBucket         `json:"buckets,omitempty"`
	Verdict           TrendVerdict          `json:"verdict"`
	ChangePercent     float64               `json:"changePercent"` // last bucket vs first bucket
	Outliers          []TrendOutlier        `json:"outliers,omitempty"`
	Conversations     []ConversationMetrics `json:"conversations,omitempty"`
	PartialData       bool                  `json:"partialData"`
	MissingTables     []string              `json:"missingTables,omitempty"`
}
