package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRendersAlignedBorders(t *testing.T) {
	tbl := newTable([]string{"Name", "Count"}, 0)
	tbl.addRow("generate response", "3")
	tbl.addRow("lookup", "12")

	var buf bytes.Buffer
	tbl.render(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	// border, header, border, two rows, border
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.True(t, strings.HasPrefix(lines[2], "├"))
	assert.True(t, strings.HasPrefix(lines[5], "└"))
	assert.Contains(t, lines[1], "Name")
	assert.Contains(t, lines[3], "generate response")

	// All lines render to the same display width.
	for _, line := range lines[1:] {
		assert.Equal(t, len([]rune(lines[0])), len([]rune(line)))
	}
}

func TestTableAlignment(t *testing.T) {
	tbl := newTable([]string{"Name", "Count"}, 0)
	tbl.addRow("ab", "7")

	var buf bytes.Buffer
	tbl.render(&buf)

	// Text column pads right, numeric column pads left.
	assert.Contains(t, buf.String(), "│ ab   │     7 │")
}

func TestTableShortRowPadsMissingCells(t *testing.T) {
	tbl := newTable([]string{"A", "B", "C"}, 0)
	tbl.addRow("x")

	var buf bytes.Buffer
	tbl.render(&buf)
	assert.Contains(t, buf.String(), "x")
}
