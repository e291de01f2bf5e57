package audit

import (
	"math"
	"sort"
)

// ComputeComposite combines category scores into a weighted health score.
//
// Only categories that appear in both weights and categoryScores take part,
// so the average is taken over the weights of the categories that reported.
func ComputeComposite(categoryScores map[string]CategoryScore, weights map[string]float64) CompositeScore {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	breakdown := make(map[string]Contribution)
	var weightedSum, totalWeight float64
	for _, k := range keys {
		cs, ok := categoryScores[k]
		if !ok {
			continue
		}
		w := weights[k]
		if math.IsNaN(w) {
			continue
		}
		product := float64(cs.Score) * w
		weightedSum += product
		totalWeight += w
		breakdown[k] = Contribution{
			Score:        cs.Score,
			Weight:       w,
			Contribution: roundHalfUp(product),
		}
	}

	score := 0
	if totalWeight > 0 {
		score = clamp(roundHalfUp(weightedSum / totalWeight))
	}
	return CompositeScore{
		Score:     score,
		Grade:     ComputeGrade(score),
		Breakdown: breakdown,
	}
}

// ComputeGrade maps a 0-100 score to a letter grade.
func ComputeGrade(score int) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}
