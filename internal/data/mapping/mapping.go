// Package mapping defines which source tables a conversation's events are
// loaded from and how each table's fields map onto the uniform event shape.
// The mappings are data, not logic: a deployment whose instance version
// renames fields overrides them with a JSON file instead of a code change.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/snowlens/snowlens/internal/core/model"
)

// IDPlaceholder is replaced with the conversation sys_id when a spec's
// query template is instantiated.
const IDPlaceholder = "$ID"

// TableSpec describes one source table: where its records are, how to select
// the ones belonging to a conversation, and which fields carry the event
// timing, label and error information.
type TableSpec struct {
	// Name is the human-readable table label used in reports.
	Name string `json:"name"`
	// Table is the backend table name.
	Table string `json:"table"`
	// Query is an encoded-query template containing IDPlaceholder.
	Query string `json:"query"`
	// Fields is the field list requested from the backend.
	Fields []string `json:"fields"`
	// StartField holds the event start timestamp. Required.
	StartField string `json:"startField"`
	// EndField holds the event end timestamp, when the table records one.
	EndField string `json:"endField,omitempty"`
	// DurationField holds a precomputed elapsed-seconds value. When set it
	// takes precedence over end-start so durations are never double-counted.
	DurationField string `json:"durationField,omitempty"`
	// LabelField names the event; LabelPrefix is prepended to it.
	LabelField  string `json:"labelField,omitempty"`
	LabelPrefix string `json:"labelPrefix,omitempty"`
	// ErrorFields are checked in order; the first non-empty value marks the
	// event as failed.
	ErrorFields []string `json:"errorFields,omitempty"`
	// Category tags every event from this table.
	Category model.Category `json:"category"`
}

// BuildQuery instantiates the spec's query template for a conversation.
func (s TableSpec) BuildQuery(conversationID string) string {
	return strings.ReplaceAll(s.Query, IDPlaceholder, conversationID)
}

// Validate checks the parts of a spec the loader and normalizer rely on.
func (s TableSpec) Validate() error {
	if s.Table == "" {
		return fmt.Errorf("table spec %q: missing table name", s.Name)
	}
	if !strings.Contains(s.Query, IDPlaceholder) {
		return fmt.Errorf("table spec %q: query has no %s placeholder", s.Table, IDPlaceholder)
	}
	if s.StartField == "" {
		return fmt.Errorf("table spec %q: missing start field", s.Table)
	}
	if _, err := model.ParseCategory(string(s.Category)); err != nil {
		return fmt.Errorf("table spec %q: %w", s.Table, err)
	}
	return nil
}

// DefaultSpecs returns the built-in table set covering the AI-agent
// conversation surface of a stock instance. Order is fixed so reports are
// stable across runs.
func DefaultSpecs() []TableSpec {
	return []TableSpec{
		{
			Name:  "Generative AI Logs",
			Table: "sys_generative_ai_log",
			Query: "conversation=$ID",
			Fields: []string{"sys_id", "definition", "started_at", "completed_at",
				"time_taken", "error", "error_code", "skill_config_id", "sys_created_on"},
			StartField:    "started_at",
			EndField:      "completed_at",
			DurationField: "time_taken",
			LabelField:    "definition",
			ErrorFields:   []string{"error", "error_code"},
			Category:      model.CategoryLLM,
		},
		{
			Name:  "Conversation Tasks",
			Table: "sys_cs_conversation_task",
			Query: "conversation=$ID",
			Fields: []string{"sys_id", "state", "status", "conversation_type",
				"reason_phrase", "sys_created_on", "sys_updated_on"},
			StartField: "sys_created_on",
			EndField:   "sys_updated_on",
			Category:   model.CategoryConversation,
		},
		{
			Name:       "Messages",
			Table:      "sys_cs_message",
			Query:      "conversation=$ID",
			Fields:     []string{"sys_id", "role", "content", "sys_created_on"},
			StartField: "sys_created_on",
			Category:   model.CategoryConversation,
		},
		{
			Name:       "Agent Step Logs",
			Table:      "sys_cs_aia_step_log",
			Query:      "conversation=$ID",
			Fields:     []string{"sys_id", "step_type", "step_description", "sys_created_on", "sys_updated_on"},
			StartField: "sys_created_on",
			EndField:   "sys_updated_on",
			LabelField: "step_description",
			Category:   model.CategoryOrchestration,
		},
		{
			Name:  "Execution Plans",
			Table: "sn_aia_execution_plan",
			Query: "sys_id=$ID^ORconversation=$ID",
			Fields: []string{"sys_id", "usecase", "agent", "state", "objective",
				"error_message", "sys_created_on", "sys_updated_on"},
			StartField:  "sys_created_on",
			EndField:    "sys_updated_on",
			LabelField:  "usecase",
			ErrorFields: []string{"error_message"},
			Category:    model.CategoryOrchestration,
		},
		{
			Name:       "Execution Tasks",
			Table:      "sn_aia_execution_task",
			Query:      "execution_plan=$ID",
			Fields:     []string{"sys_id", "agent", "state", "sys_created_on", "sys_updated_on"},
			StartField: "sys_created_on",
			EndField:   "sys_updated_on",
			LabelField: "agent",
			Category:   model.CategoryOrchestration,
		},
		{
			Name:  "Tool Executions",
			Table: "sn_aia_tools_execution",
			Query: "execution_plan=$ID",
			Fields: []string{"sys_id", "tool", "agent", "state", "error_message",
				"sys_created_on", "sys_updated_on"},
			StartField:  "sys_created_on",
			EndField:    "sys_updated_on",
			LabelField:  "tool",
			LabelPrefix: "Tool: ",
			ErrorFields: []string{"error_message"},
			Category:    model.CategoryTool,
		},
		{
			Name:       "Agent Messages",
			Table:      "sn_aia_message",
			Query:      "execution_plan=$ID",
			Fields:     []string{"sys_id", "role", "content", "sys_created_on"},
			StartField: "sys_created_on",
			Category:   model.CategoryOrchestration,
		},
		{
			Name:       "Skill Discovery",
			Table:      "sys_cs_skill_discovery_tracking",
			Query:      "conversation=$ID",
			Fields:     []string{"sys_id", "state", "available_skill_ids", "sys_created_on", "sys_updated_on"},
			StartField: "sys_created_on",
			EndField:   "sys_updated_on",
			Category:   model.CategorySkill,
		},
		{
			Name:  "Integration Invocations",
			Table: "sys_cs_fdih_invocation",
			Query: "calling_cs_conversation_task.conversation.sys_id=$ID",
			Fields: []string{"sys_id", "name", "type", "response_state",
				"execution_mode", "sys_created_on", "sys_updated_on"},
			StartField:  "sys_created_on",
			EndField:    "sys_updated_on",
			LabelField:  "name",
			LabelPrefix: "Integration: ",
			Category:    model.CategoryIntegration,
		},
		{
			Name:       "Assist Searches",
			Table:      "sys_cs_now_assist_search",
			Query:      "conversation=$ID",
			Fields:     []string{"sys_id", "query", "result_count", "sys_created_on", "sys_updated_on"},
			StartField: "sys_created_on",
			EndField:   "sys_updated_on",
			LabelField: "query",
			Category:   model.CategorySearch,
		},
		{
			Name:  "API Invocations",
			Table: "one_api_service_plan_invocation",
			Query: "app_document=$ID",
			Fields: []string{"sys_id", "service_name", "capability_id", "status",
				"sys_created_on", "sys_updated_on"},
			StartField:  "sys_created_on",
			EndField:    "sys_updated_on",
			LabelField:  "service_name",
			LabelPrefix: "API: ",
			Category:    model.CategoryAPI,
		},
	}
}

// Load returns the default specs merged with overrides from the given JSON
// file. An override replaces the default entry for the same backend table;
// unknown tables are appended after the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) ([]TableSpec, error) {
	specs := DefaultSpecs()
	if path == "" {
		return specs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	var overrides []TableSpec
	if err := sonic.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse mappings file %s: %w", path, err)
	}

	byTable := make(map[string]int, len(specs))
	for i, s := range specs {
		byTable[s.Table] = i
	}

	for _, o := range overrides {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("mappings file %s: %w", path, err)
		}
		if i, ok := byTable[o.Table]; ok {
			specs[i] = o
		} else {
			specs = append(specs, o)
		}
	}

	return specs, nil
}
