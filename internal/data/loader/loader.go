// Package loader fetches every event record belonging to a conversation from
// the fixed set of source tables and normalizes them into timed events.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/data/mapping"
	"github.com/snowlens/snowlens/internal/data/normalizer"
	"github.com/snowlens/snowlens/internal/data/snowclient"
	"github.com/snowlens/snowlens/internal/util"
)

// Fetcher is the read contract the loader needs from the backend client.
type Fetcher interface {
	Fetch(ctx context.Context, req snowclient.FetchRequest) ([]snowclient.Record, error)
}

// Result is everything loaded for one conversation. MissingTables lists
// source tables that could not be read; their absence degrades the analysis
// to partial data but never fails it.
type Result struct {
	ConversationID string
	Events         []model.TimedEvent
	RecordCounts   map[string]int
	MissingTables  []string
}

// PartialData reports whether any source table was unreachable.
func (r *Result) PartialData() bool {
	return len(r.MissingTables) > 0
}

// Loader loads conversation events across all configured source tables.
type Loader struct {
	fetcher Fetcher
	limit   int

	mu    sync.RWMutex
	specs []mapping.TableSpec
}

// New creates a Loader. The limit caps records fetched per table.
func New(fetcher Fetcher, specs []mapping.TableSpec, limit int) *Loader {
	if limit <= 0 {
		limit = 1000
	}
	return &Loader{fetcher: fetcher, specs: specs, limit: limit}
}

// SetSpecs swaps the table specs, used by mapping hot-reload.
func (l *Loader) SetSpecs(specs []mapping.TableSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = specs
}

func (l *Loader) currentSpecs() []mapping.TableSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.specs
}

// tableResult is one table's outcome, slotted by spec index so the fixed
// table order survives concurrent fetching.
type tableResult struct {
	events  []model.TimedEvent
	count   int
	missing bool
	err     error
}

// Load fetches all source tables for a conversation concurrently. A failed
// or timed-out table is skipped and recorded; only the backend being
// entirely unreachable returns an error.
func (l *Loader) Load(ctx context.Context, conversationID string) (*Result, error) {
	specs := l.currentSpecs()
	results := make([]tableResult, len(specs))

	start := time.Now()
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec mapping.TableSpec) {
			defer wg.Done()
			results[i] = l.loadTable(ctx, spec, conversationID)
		}(i, spec)
	}
	wg.Wait()
	util.LogDebugf("Loaded %d tables for %s in %v", len(specs), conversationID, time.Since(start))

	result := &Result{
		ConversationID: conversationID,
		RecordCounts:   make(map[string]int, len(specs)),
	}

	upstreamFailures := 0
	var firstUpstream error
	for i, tr := range results {
		spec := specs[i]
		if tr.missing {
			result.MissingTables = append(result.MissingTables, spec.Table)
			if tr.err != nil && model.CodeOf(tr.err) == model.CodeUpstream {
				upstreamFailures++
				if firstUpstream == nil {
					firstUpstream = tr.err
				}
			}
			continue
		}
		result.RecordCounts[spec.Name] = tr.count
		result.Events = append(result.Events, tr.events...)
	}

	// A single unreachable table is absorbed as partial data, but when every
	// table failed the same way the collaborator itself is down.
	if upstreamFailures == len(specs) && len(specs) > 0 {
		return nil, firstUpstream
	}

	return result, nil
}

// loadTable fetches and normalizes one table. All table-level failures are
// converted into a "missing" marker here.
func (l *Loader) loadTable(ctx context.Context, spec mapping.TableSpec, conversationID string) tableResult {
	records, err := l.fetcher.Fetch(ctx, snowclient.FetchRequest{
		Table:   spec.Table,
		Query:   spec.BuildQuery(conversationID),
		Fields:  spec.Fields,
		Limit:   l.limit,
		OrderBy: spec.StartField,
	})
	if err != nil {
		if errors.Is(err, snowclient.ErrTableUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			util.LogDebugf("Skipping table %s: %v", spec.Table, err)
		} else {
			util.LogWarnf("Skipping table %s: %v", spec.Table, err)
		}
		return tableResult{missing: true, err: err}
	}

	tr := tableResult{count: len(records)}
	for _, rec := range records {
		if event, ok := normalizer.Normalize(spec, rec, conversationID); ok {
			tr.events = append(tr.events, event)
		}
	}
	return tr
}

// conversationIdentityTables are probed to decide whether an identifier that
// yielded zero events exists at all on the backend.
var conversationIdentityTables = []string{"sn_aia_execution_plan", "sys_cs_conversation"}

// Exists reports whether the conversation identifier resolves to a known
// execution plan or conversation record. Probe failures are treated as
// "cannot confirm absence" so an empty summary is preferred over a spurious
// not-found.
func (l *Loader) Exists(ctx context.Context, conversationID string) bool {
	for _, table := range conversationIdentityTables {
		records, err := l.fetcher.Fetch(ctx, snowclient.FetchRequest{
			Table:  table,
			Query:  "sys_id=" + conversationID,
			Fields: []string{"sys_id"},
			Limit:  1,
		})
		if err != nil {
			return true
		}
		if len(records) > 0 {
			return true
		}
	}
	return false
}

// PlanInfo is the execution-plan header row used for trend selection.
type PlanInfo struct {
	SysID   string
	Usecase string
	State   string
	Created time.Time
	Updated time.Time
}

// ListExecutionPlans returns up to limit execution plans created after the
// cutoff, oldest first, optionally filtered by use-case name.
func (l *Loader) ListExecutionPlans(ctx context.Context, since time.Time, usecase string, limit int) ([]PlanInfo, error) {
	query := fmt.Sprintf("sys_created_on>%s", util.FormatSnowTime(since))
	if usecase != "" {
		query += "^usecase.nameLIKE" + usecase
	}

	records, err := l.fetcher.Fetch(ctx, snowclient.FetchRequest{
		Table:   "sn_aia_execution_plan",
		Query:   query,
		Fields:  []string{"sys_id", "usecase", "state", "sys_created_on", "sys_updated_on"},
		Limit:   limit,
		OrderBy: "sys_created_on",
	})
	if err != nil {
		if errors.Is(err, snowclient.ErrTableUnavailable) {
			return nil, model.Upstreamf(err, "execution plan table is not readable on this instance")
		}
		return nil, err
	}

	plans := make([]PlanInfo, 0, len(records))
	for _, rec := range records {
		sysID := rec.Get("sys_id")
		if sysID == "" {
			continue
		}
		plans = append(plans, PlanInfo{
			SysID:   sysID,
			Usecase: rec.Get("usecase"),
			State:   rec.Get("state"),
			Created: util.ParseSnowTime(rec.Get("sys_created_on")),
			Updated: util.ParseSnowTime(rec.Get("sys_updated_on")),
		})
	}
	return plans, nil
}
