package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/data/loader"
	"github.com/snowlens/snowlens/internal/data/mapping"
	"github.com/snowlens/snowlens/internal/data/snowclient"
	"github.com/snowlens/snowlens/internal/util"
)

// stubFetcher serves canned records per conversation and table. It routes on
// the query string the way the real backend would: a conversation's records
// are returned for any query mentioning its identifier.
type stubFetcher struct {
	rows      map[string]map[string][]snowclient.Record // conversation id -> table -> records
	plans     []snowclient.Record                       // served for execution-plan window queries
	tableErrs map[string]error                          // table -> forced error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		rows:      make(map[string]map[string][]snowclient.Record),
		tableErrs: make(map[string]error),
	}
}

func (f *stubFetcher) Fetch(_ context.Context, req snowclient.FetchRequest) ([]snowclient.Record, error) {
	if err, ok := f.tableErrs[req.Table]; ok {
		return nil, err
	}
	if req.Table == "sn_aia_execution_plan" && strings.HasPrefix(req.Query, "sys_created_on>") {
		return f.plans, nil
	}
	for id, tables := range f.rows {
		if strings.Contains(req.Query, id) {
			return tables[req.Table], nil
		}
	}
	return nil, nil
}

func field(v string) snowclient.Field {
	return snowclient.Field{Value: v}
}

// addConversation registers a conversation whose events are LLM calls at the
// given (offset, duration) pairs, plus the conversation record the existence
// probe looks for. failures marks that many calls, from the first, as failed.
func (f *stubFetcher) addConversation(id string, start time.Time, calls [][2]float64, failures int) {
	tables := map[string][]snowclient.Record{
		"sys_cs_conversation": {{"sys_id": field(id)}},
	}
	for i, call := range calls {
		callStart := start.Add(time.Duration(call[0] * float64(time.Second)))
		callEnd := callStart.Add(time.Duration(call[1] * float64(time.Second)))
		rec := snowclient.Record{
			"sys_id":       field(fmt.Sprintf("%s-llm-%d", id, i)),
			"definition":   field(fmt.Sprintf("generate-%d", i)),
			"started_at":   field(util.FormatSnowTime(callStart)),
			"completed_at": field(util.FormatSnowTime(callEnd)),
			"time_taken":   field(fmt.Sprintf("%g", call[1])),
		}
		if i < failures {
			rec["error"] = field("model invocation failed")
		}
		tables["sys_generative_ai_log"] = append(tables["sys_generative_ai_log"], rec)
	}
	f.rows[id] = tables
}

func newTestPipeline(f *stubFetcher) *Pipeline {
	l := loader.New(f, mapping.DefaultSpecs(), 100)
	return NewPipeline(l, New(testThresholds()))
}

func TestAnalyzeConversationRequiresID(t *testing.T) {
	p := newTestPipeline(newStubFetcher())

	_, err := p.AnalyzeConversation(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, model.CodeInvalidInput, model.CodeOf(err))
}

func TestAnalyzeConversationNotFound(t *testing.T) {
	p := newTestPipeline(newStubFetcher())

	_, err := p.AnalyzeConversation(context.Background(), "aaa111")
	require.Error(t, err)
	assert.Equal(t, model.CodeNotFound, model.CodeOf(err))
}

func TestAnalyzeConversationEmptyButKnown(t *testing.T) {
	f := newStubFetcher()
	f.rows["aaa111"] = map[string][]snowclient.Record{
		"sys_cs_conversation": {{"sys_id": field("aaa111")}},
	}
	p := newTestPipeline(f)

	summary, err := p.AnalyzeConversation(context.Background(), "aaa111")
	require.NoError(t, err)
	assert.Zero(t, summary.EventCount)
	assert.Zero(t, summary.TotalSeconds)
	assert.False(t, summary.PartialData)
}

func TestAnalyzeConversationEndToEnd(t *testing.T) {
	f := newStubFetcher()
	f.addConversation("aaa111", testBase, [][2]float64{{0, 4}, {6, 4}}, 1)
	p := newTestPipeline(f)

	summary, err := p.AnalyzeConversation(context.Background(), "aaa111")
	require.NoError(t, err)

	assert.InDelta(t, 10.0, summary.TotalSeconds, 1e-9)
	assert.Equal(t, 2, summary.EventCount)
	assert.Equal(t, 2, summary.LLMCallCount)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 2, summary.RecordCounts["Generative AI Logs"])
	assert.Equal(t, model.CategoryLLM, summary.SlowestCategory)
}

func TestAnalyzeConversationPartialData(t *testing.T) {
	f := newStubFetcher()
	f.addConversation("aaa111", testBase, [][2]float64{{0, 2}, {3, 2}}, 0)
	f.tableErrs["sys_cs_fdih_invocation"] = snowclient.ErrTableUnavailable
	p := newTestPipeline(f)

	summary, err := p.AnalyzeConversation(context.Background(), "aaa111")
	require.NoError(t, err)

	assert.True(t, summary.PartialData)
	assert.Contains(t, summary.MissingTables, "sys_cs_fdih_invocation")
	assert.Equal(t, 2, summary.EventCount)
}
