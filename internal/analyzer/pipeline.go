package analyzer

import (
	"context"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/data/loader"
	"github.com/snowlens/snowlens/internal/util"
)

// Pipeline wires the loader and analyzer into the three analysis operations.
// Nothing is cached between calls: every analysis reflects the backend's
// current data.
type Pipeline struct {
	loader   *loader.Loader
	analyzer *Analyzer
}

// NewPipeline creates a Pipeline.
func NewPipeline(l *loader.Loader, a *Analyzer) *Pipeline {
	return &Pipeline{loader: l, analyzer: a}
}

// AnalyzeConversation loads and summarizes one conversation. An identifier
// that resolves to no execution plan or conversation record at all returns
// NOT_FOUND; a known conversation with no events yields an empty summary.
func (p *Pipeline) AnalyzeConversation(ctx context.Context, conversationID string) (*model.ConversationSummary, error) {
	if conversationID == "" {
		return nil, model.InvalidInputf("conversation id is required")
	}

	result, err := p.loader.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if len(result.Events) == 0 && !p.loader.Exists(ctx, conversationID) {
		return nil, model.NotFoundf("conversation %s does not exist on this instance", conversationID)
	}

	summary := p.analyzer.Analyze(conversationID, result.Events)
	summary.RecordCounts = result.RecordCounts
	summary.PartialData = result.PartialData()
	summary.MissingTables = result.MissingTables

	util.LogInfof("Analyzed conversation %s: %d events, %.2fs total, %d missing tables",
		conversationID, summary.EventCount, summary.TotalSeconds, len(summary.MissingTables))

	return &summary, nil
}
