package component

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSparklineBlocks(t *testing.T) {
	s := NewSparkline(4).SetData([]float64{0, 1, 2, 3})
	if got := s.Blocks(); got != "▁▃▅█" {
		t.Errorf("blocks = %q", got)
	}
	if s.Trend() != "↗" {
		t.Errorf("trend = %q, want up", s.Trend())
	}

	flat := NewSparkline(3).SetData([]float64{2, 2, 2})
	if got := flat.Blocks(); got != "▅▅▅" {
		t.Errorf("flat blocks = %q", got)
	}
	if flat.Trend() != "→" {
		t.Errorf("flat trend = %q", flat.Trend())
	}

	empty := NewSparkline(5)
	if got := empty.Blocks(); utf8.RuneCountInString(got) != 5 {
		t.Errorf("empty blocks = %q", got)
	}
}

func TestSparklineResamples(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(-i)
	}
	s := NewSparkline(10).SetData(data)

	pts := s.Points()
	if len(pts) != 10 {
		t.Fatalf("points = %d, want 10", len(pts))
	}
	if pts[9] != -99 {
		t.Errorf("last point = %v, want the series end", pts[9])
	}
	if s.Trend() != "↘" {
		t.Errorf("trend = %q, want down", s.Trend())
	}
	if !strings.Contains(s.SetLabel("PnL").View(), "-99.0000") {
		t.Errorf("view misses the last value: %q", s.View())
	}
}
