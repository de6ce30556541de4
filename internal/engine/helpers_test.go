package engine

import (
	"math"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func mustWindow(t *testing.T, start, end string) Window {
	t.Helper()
	win, err := ParseWindow(start, end)
	if err != nil {
		t.Fatalf("bad test window %s..%s: %v", start, end, err)
	}
	return win
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
