package report

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/gradekit/autograde/internal/model"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// RenderBatch renders the batch summary table, one row per graded
// student, clipped to width display cells (0 means unclipped). Styling
// is skipped when color is false (non-terminal output).
func RenderBatch(results []model.GradingResult, width int, color bool) string {
	headers := []string{"STUDENT", "CODEFILE", "PRE", "POST", "SCORE"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		score := "-"
		if res.HasScore {
			score = strconv.FormatFloat(res.Score, 'g', -1, 64) +
				" / " + strconv.Itoa(res.TotalPoints)
		}
		rows = append(rows, []string{
			res.Label,
			res.Codefile,
			strconv.FormatFloat(res.PrePoints, 'g', -1, 64),
			strconv.FormatFloat(res.PostPoints, 'g', -1, 64),
			score,
		})
	}
	lines := ClipLines(FormatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true}), width)
	if len(lines) > 0 && color {
		lines[0] = headerStyle.Render(lines[0])
	}
	return strings.Join(lines, "\n")
}

// ClipLines truncates rendered lines to the given display width. A
// non-positive width leaves the lines alone. Clip before styling:
// escape sequences would be counted as cells.
func ClipLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	for i, line := range lines {
		if displayWidth(line) > width {
			lines[i] = runewidth.Truncate(line, width, "…")
		}
	}
	return lines
}

// FormatTable lays out rows under headers with space-padded columns.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// Student names can carry wide characters; pad by display cells, not
// runes.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
