package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// table renders rows with box-drawing borders. Column widths grow to fit the
// content; cell display width is measured with runewidth so labels carrying
// wide Unicode characters keep the borders aligned.
type table struct {
	headers []string
	rows    [][]string
	// leftAlign marks text columns; numeric columns are right-aligned.
	leftAlign []bool
}

func newTable(headers []string, leftAlign ...int) *table {
	align := make([]bool, len(headers))
	for _, i := range leftAlign {
		align[i] = true
	}
	return &table{headers: headers, leftAlign: align}
}

func (t *table) addRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *table) render(w io.Writer) {
	widths := t.columnWidths()

	t.printBorder(w, widths, "┌", "┬", "┐")
	t.printRow(w, t.headers, widths)
	t.printBorder(w, widths, "├", "┼", "┤")
	for _, row := range t.rows {
		t.printRow(w, row, widths)
	}
	t.printBorder(w, widths, "└", "┴", "┘")
}

func (t *table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	// Clamp text columns so one long label cannot push the table past the
	// terminal edge.
	budget := maxTableWidth()
	total := 1
	for _, w := range widths {
		total += w + 3
	}
	if total > budget {
		for i, left := range t.leftAlign {
			if left && widths[i] > total-budget {
				widths[i] -= total - budget
				break
			}
		}
	}
	return widths
}

// maxTableWidth returns the rendering budget from the terminal size, with a
// fallback for pipes and very narrow terminals.
func maxTableWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth < 60 {
		return 100
	}
	if termWidth > 160 {
		return 160
	}
	return termWidth
}

func (t *table) printBorder(w io.Writer, widths []int, left, middle, right string) {
	fmt.Fprint(w, left)
	for i, width := range widths {
		fmt.Fprint(w, strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			fmt.Fprint(w, middle)
		}
	}
	fmt.Fprintln(w, right)
}

func (t *table) printRow(w io.Writer, cells []string, widths []int) {
	fmt.Fprint(w, "│")
	for i, cell := range cells {
		cell = runewidth.Truncate(cell, widths[i], "…")
		if t.leftAlign[i] {
			fmt.Fprintf(w, " %s │", padCell(cell, widths[i], true))
		} else {
			fmt.Fprintf(w, " %s │", padCell(cell, widths[i], false))
		}
	}
	fmt.Fprintln(w)
}

func padCell(s string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}
