// Package aggregate computes the derived metrics of the record engine:
// participation scores, weighted grade totals and attendance statistics.
// Everything here is pure; callers load records and pass them in.
package aggregate

import (
	"math"

	"github.com/dalemusser/rollbook/internal/domain/models"
)

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ParticipationScore maps a session's participation count to a 0-10 score:
// 0→0, 1→3, 2→6, 3→9, 4 or more→10. Negative counts score 0.
func ParticipationScore(count int) float64 {
	switch {
	case count <= 0:
		return 0
	case count >= 4:
		return 10
	default:
		return float64(count * 3)
	}
}

// Weights is the contribution of each category to the weighted total.
var Weights = map[models.Category]float64{
	models.CatMidterm:       0.30,
	models.CatFinal:         0.40,
	models.CatAssignment1:   0.10,
	models.CatAssignment2:   0.10,
	models.CatAssignment3:   0.05,
	models.CatProject:       0.15,
	models.CatParticipation: 0.05,
}

// WeightedTotal averages the present category scores by weight, normalizing
// over the weights of the categories actually present. No scores → 0.
func WeightedTotal(scores map[models.Category]float64) float64 {
	var sum, weight float64
	for c, v := range scores {
		w, ok := Weights[c]
		if !ok {
			continue
		}
		sum += v * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return Round2(sum / weight)
}
