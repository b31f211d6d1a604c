package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/dxportal/internal/grid"
	"github.com/five82/dxportal/internal/pages"
)

const (
	checkWidth   = 4 // "[x] "
	columnGap    = 1
	minFlexWidth = 8
)

// layoutColumns assigns a width to every column. Fixed widths are kept
// and the remaining space is shared by the flexible columns.
func layoutColumns(headers []pages.Header, total int) []int {
	widths := make([]int, len(headers))
	avail := total - checkWidth - columnGap*max(len(headers)-1, 0)
	flex := 0
	for i, h := range headers {
		if h.Width > 0 {
			widths[i] = h.Width
			avail -= h.Width
		} else {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}
	share := max(avail/flex, minFlexWidth)
	extra := max(avail-share*flex, 0)
	for i, h := range headers {
		if h.Width > 0 {
			continue
		}
		widths[i] = share
		if extra > 0 {
			widths[i]++
			extra--
		}
	}
	return widths
}

// fit truncates or pads s to exactly width cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func checkbox(state grid.HeaderState) string {
	switch state {
	case grid.Checked:
		return "[x] "
	case grid.Indeterminate:
		return "[-] "
	default:
		return "[ ] "
	}
}

func sortMarker(sort grid.SortBy, id string) string {
	if sort.ColumnID != id {
		return ""
	}
	if sort.Desc {
		return " ▼"
	}
	return " ▲"
}

// renderGrid draws the header and the windowed rows of v.
func (m Model) renderGrid(s *listScreen, width, height int) string {
	styles := m.theme.Styles()
	v := s.view
	headers := v.Headers()
	widths := layoutColumns(headers, width)
	sort := v.Sort()

	var b strings.Builder

	head := []string{checkbox(v.HeaderCheck())}
	for i, h := range headers {
		label := h.Label
		if h.Sortable && i < 9 {
			label = fmt.Sprintf("%d %s", i+1, label)
		}
		head = append(head, fit(label+sortMarker(sort, h.ID), widths[i]))
	}
	b.WriteString(styles.AccentText.Bold(true).Render(clip(strings.Join(head, " "), width)))
	b.WriteString("\n")

	rows := max(height-1, 1)
	s.offset = grid.ScrollTo(s.cursor, s.offset, rows, v.Len())
	start, end := v.Window(s.offset, rows)
	for pos := start; pos < end; pos++ {
		mark := grid.Unchecked
		if v.IsSelected(pos) {
			mark = grid.Checked
		}
		cells := []string{checkbox(mark)}
		for col := range headers {
			text := v.Cell(pos, col)
			cell := fit(text, widths[col])
			if color := styles.StatusColor(text); color != "" && pos != s.cursor {
				cell = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(cell)
			}
			cells = append(cells, cell)
		}
		line := clip(strings.Join(cells, " "), width)
		if pos == s.cursor {
			line = styles.Selected.Width(width).Render(line)
		}
		b.WriteString(line)
		if pos < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// clip cuts a rendered line to width cells, keeping ANSI sequences intact.
func clip(line string, width int) string {
	if lipgloss.Width(line) <= width {
		return line
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
