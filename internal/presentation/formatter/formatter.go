// Package formatter renders analysis results for the terminal. Two renderers
// are provided: machine-readable JSON and a human-readable text report.
package formatter

import (
	"fmt"
	"io"

	"github.com/snowlens/snowlens/internal/core/model"
)

// Formatter renders each analysis result kind to its output writer.
type Formatter interface {
	FormatSummary(s *model.ConversationSummary) error
	FormatComparison(c *model.ComparisonResult) error
	FormatTrend(t *model.TrendResult) error
}

// New selects a formatter by name. Supported formats are "text" and "json".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "text", "":
		return NewTextFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q (want text or json)", format)
	}
}
