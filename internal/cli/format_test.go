package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{-5, "0s"},
		{0, "0s"},
		{45, "45s"},
		{120, "2m"},
		{125, "2m 5s"},
		{3725, "1h 2m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.secs); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatNumberAndCount(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Errorf("FormatNumber negative = %q", got)
	}
	if got := FormatCount(1234); got != "1.2K" {
		t.Errorf("FormatCount = %q", got)
	}
	if got := FormatCount(999); got != "999" {
		t.Errorf("FormatCount small = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2024-03-11"); got != "Mon 03-11" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDate("garbage"); got != "garbage" {
		t.Errorf("FormatDate passthrough = %q", got)
	}
	if got := FormatPercent(75); got != "75.0%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestRenderTableAlignsWideCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Time"},
		Rows:    [][]string{{"Go", "1h 0m"}, {"---"}, {"TypeScript", "5s"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != width {
			t.Errorf("line %d width %d, want %d: %q", i, lipgloss.Width(l), width, l)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1, 2}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("empty input should render nothing")
	}
}
