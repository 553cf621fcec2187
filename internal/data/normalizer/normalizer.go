// Package normalizer converts heterogeneous table records into the uniform
// TimedEvent shape using the per-table field mappings.
package normalizer

import (
	"strings"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/data/mapping"
	"github.com/snowlens/snowlens/internal/data/snowclient"
	"github.com/snowlens/snowlens/internal/util"
)

// Normalize maps one record onto a TimedEvent. The second return is false
// when the record has no usable start timestamp; such records are skipped
// rather than treated as errors.
//
// Duration comes from exactly one source: the table's precomputed
// elapsed-time field when the mapping declares one, otherwise end minus
// start. A negative end-start span marks the event as having no duration.
func Normalize(spec mapping.TableSpec, rec snowclient.Record, conversationID string) (model.TimedEvent, bool) {
	start := util.ParseSnowTime(rec.Get(spec.StartField))
	if start.IsZero() {
		return model.TimedEvent{}, false
	}

	event := model.TimedEvent{
		Category:       spec.Category,
		Name:           eventName(spec, rec),
		Table:          spec.Table,
		SysID:          rec.Get("sys_id"),
		Start:          start,
		ConversationID: conversationID,
	}

	if spec.EndField != "" {
		event.End = util.ParseSnowTime(rec.Get(spec.EndField))
	}

	if spec.DurationField != "" {
		if seconds, ok := util.ParseSeconds(rec.Get(spec.DurationField)); ok {
			event.Duration = seconds
			event.HasDuration = true
		}
	} else if !event.End.IsZero() {
		span := event.End.Sub(event.Start).Seconds()
		if span >= 0 {
			event.Duration = span
			event.HasDuration = true
		}
	}

	for _, field := range spec.ErrorFields {
		if detail := strings.TrimSpace(rec.Get(field)); detail != "" {
			event.IsError = true
			event.ErrorDetail = detail
			break
		}
	}

	return event, true
}

// eventName resolves the event label, falling back to the table's report
// name when the label field is absent or empty.
func eventName(spec mapping.TableSpec, rec snowclient.Record) string {
	if spec.LabelField != "" {
		if label := strings.TrimSpace(rec.Get(spec.LabelField)); label != "" {
			return spec.LabelPrefix + label
		}
	}
	return spec.Name
}
