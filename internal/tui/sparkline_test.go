package tui

import (
	"slices"
	"testing"
)

func TestHistory(t *testing.T) {
	t.Parallel()
	h := NewHistory(3)
	if h.Last() != 0 || len(h.Values()) != 0 {
		t.Fatal("new history should be empty")
	}

	for _, v := range []float64{1, 2, 3, 4} {
		h.Push(v)
	}
	if got := h.Values(); !slices.Equal(got, []float64{2, 3, 4}) {
		t.Errorf("Values() = %v, want [2 3 4]", got)
	}
	if h.Last() != 4 {
		t.Errorf("Last() = %v, want 4", h.Last())
	}

	h.SetLimit(2)
	if got := h.Values(); !slices.Equal(got, []float64{3, 4}) {
		t.Errorf("after shrink Values() = %v, want [3 4]", got)
	}

	h.SetLimit(0)
	h.Push(9)
	if got := h.Values(); !slices.Equal(got, []float64{9}) {
		t.Errorf("limit is at least one sample, got %v", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"empty", nil, ""},
		{"zero", []float64{0, 0}, "▁▁"},
		{"full", []float64{100}, "█"},
		{"gradient", []float64{0, 50, 100}, "▁▄█"},
		{"clamped", []float64{-10, 150}, "▁█"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RenderSparkline(tt.values); got != tt.want {
				t.Errorf("RenderSparkline(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}
