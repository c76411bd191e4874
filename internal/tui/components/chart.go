package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func peakOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		return 1
	}
	return peak
}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := peakOf(values)

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		buf.WriteRune(blocks[max(0, min(idx, len(blocks)-1))])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// ColumnChart renders values as vertical bars of the given height, each
// colWidth cells wide. Labels, when given, are printed under every
// labelEvery-th column.
func ColumnChart(values []float64, labels []string, color lipgloss.Color, height, colWidth, labelEvery int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	height = max(height, 1)
	colWidth = max(colWidth, 1)
	labelEvery = max(labelEvery, 1)
	peak := peakOf(values)

	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	// Each row covers 8 sub-steps so partial blocks can cap a bar.
	levels := make([]int, len(values))
	for i, v := range values {
		levels[i] = int(v / peak * float64(height*8))
	}

	var b strings.Builder
	for row := height; row >= 1; row-- {
		var line strings.Builder
		for i, lvl := range levels {
			fill := lvl - (row-1)*8
			cell := " "
			switch {
			case fill >= 8:
				cell = "█"
			case fill > 0:
				cell = string(blocks[fill-1])
			}
			line.WriteString(strings.Repeat(cell, colWidth))
			if i < len(levels)-1 {
				line.WriteByte(' ')
			}
		}
		b.WriteString(barStyle.Render(line.String()))
		b.WriteString("\n")
	}

	axisLen := len(values)*(colWidth+1) - 1
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == len(values) {
		buf := []byte(strings.Repeat(" ", axisLen))
		for i := 0; i < len(labels); i += labelEvery {
			pos := i * (colWidth + 1)
			end := min(pos+len(labels[i]), axisLen)
			copy(buf[pos:end], labels[i])
		}
		b.WriteString("\n")
		b.WriteString(axisStyle.Render(strings.TrimRight(string(buf), " ")))
	}
	return b.String()
}
