package audit

import (
	"math"

	"github.com/dshills/healthaudit/internal/benchmark"
)

// ScoreMetric places a raw value on the 0-100 axis defined by b.
//
// Meeting the good threshold scores 100. Between average and good the score
// runs linearly from 80 to 100; between poor and average it runs from 0 to 60.
// NaN values score {0, poor}.
func ScoreMetric(value float64, b benchmark.Benchmark) MetricScore {
	if math.IsNaN(value) {
		return MetricScore{Score: 0, Rating: RatingPoor}
	}

	var score float64
	var rating Rating
	if b.Direction == benchmark.LowerIsBetter {
		switch {
		case value <= b.Good:
			score, rating = 100, RatingGood
		case value <= b.Average:
			rating = RatingAverage
			score = 80
			if b.Average != b.Good {
				score = 80 + 20*(b.Average-value)/(b.Average-b.Good)
			}
		default:
			rating = RatingPoor
			if b.Poor != b.Average {
				score = 60 * (b.Poor - value) / (b.Poor - b.Average)
			}
		}
	} else {
		switch {
		case value >= b.Good:
			score, rating = 100, RatingGood
		case value >= b.Average:
			rating = RatingAverage
			score = 80
			if b.Good != b.Average {
				score = 80 + 20*(value-b.Average)/(b.Good-b.Average)
			}
		default:
			rating = RatingPoor
			if b.Average != b.Poor {
				score = 60 * (value - b.Poor) / (b.Average - b.Poor)
			}
		}
	}

	return MetricScore{Score: clamp(roundHalfUp(score)), Rating: rating}
}

// MeanScore averages metric scores into a category score.
// It returns false when there is nothing to average.
func MeanScore(scores []MetricScore) (int, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	total := 0
	for _, s := range scores {
		total += s.Score
	}
	return clamp(roundHalfUp(float64(total) / float64(len(scores)))), true
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// NormalizeScore rounds a reported score and clamps it to 0-100.
func NormalizeScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(roundHalfUp(math.Max(-1, math.Min(v, 101))))
}
