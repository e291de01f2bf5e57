// Package trend summarizes score series as sparklines and directional trends.
package trend

import "math"

const DefaultWindow = 5

// stableBand is the |delta%| below which a series counts as stable.
const stableBand = 5

var glyphs = []rune("▁▂▃▄▅▆▇█")

// Direction is the overall movement of a series.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// Trend describes how a window of scores moved.
type Trend struct {
	Direction    Direction `json:"direction"`
	Delta        float64   `json:"delta"`
	DeltaPercent int       `json:"delta_percent"`
	Sparkline    string    `json:"sparkline"`
}

// Sparkline renders values as block glyphs scaled between the series min and max.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	top := float64(len(glyphs) - 1)
	out := make([]rune, len(values))
	for i, v := range values {
		level := int(math.Floor((v-lo)/span*top + 0.5))
		if level < 0 {
			level = 0
		}
		if level > len(glyphs)-1 {
			level = len(glyphs) - 1
		}
		out[i] = glyphs[level]
	}
	return string(out)
}

// Compute compares the first and last values of the trailing window.
// It returns nil when the window holds fewer than two values.
func Compute(values []float64, window int) *Trend {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(values) > window {
		values = values[len(values)-window:]
	}
	if len(values) < 2 {
		return nil
	}

	first, last := values[0], values[len(values)-1]
	delta := last - first

	var pct int
	switch {
	case first != 0:
		pct = int(math.Floor(100*delta/first + 0.5))
	case delta > 0:
		pct = 100
	case delta < 0:
		pct = -100
	}

	var dir Direction
	switch {
	case abs(pct) < stableBand:
		dir = Stable
	case delta > 0:
		dir = Improving
	default:
		dir = Declining
	}

	return &Trend{
		Direction:    dir,
		Delta:        delta,
		DeltaPercent: pct,
		Sparkline:    Sparkline(values),
	}
}

// Ints converts integer scores to the float series Compute expects.
func Ints(scores []int) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = float64(s)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
