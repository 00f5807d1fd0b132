package progress

import (
	"math"
	"slices"
)

// window は直近の瞬間レートを保持するリングバッファ
type window struct {
	buf  []float64
	next int
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, 0, max(size, 1))}
}

// Add drops NaN and infinite samples.
func (w *window) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if len(w.buf) < cap(w.buf) {
		w.buf = append(w.buf, v)
		return
	}
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
}

func (w *window) Len() int { return len(w.buf) }

// Quantile returns the q-quantile with linear interpolation, or 0 when empty.
func (w *window) Quantile(q float64) float64 {
	if len(w.buf) == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(w.buf))
	pos := min(max(q, 0), 1) * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
