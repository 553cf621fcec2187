package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/snowlens/snowlens/internal/core/model"
)

// JSONFormatter emits one indented JSON document per result.
type JSONFormatter struct {
	w io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{w: w}
}

func (f *JSONFormatter) FormatSummary(s *model.ConversationSummary) error {
	return f.encode(s)
}

func (f *JSONFormatter) FormatComparison(c *model.ComparisonResult) error {
	return f.encode(c)
}

func (f *JSONFormatter) FormatTrend(t *model.TrendResult) error {
	return f.encode(t)
}

func (f *JSONFormatter) encode(v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.w.Write(data)
	return err
}
