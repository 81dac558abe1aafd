// CLAUDE:SUMMARY Weighted lead scoring: normalized positive weights, subtractive risk, multiplicative penalties, grade bands.
// Package scoring combines per-signal scores into one explainable
// 0..100 lead score.
//
// Positive dimensions and risk dimensions are normalized separately:
// positive weights are scaled to sum to 1 among themselves, risk weight
// magnitudes likewise among themselves, and the final score subtracts
// the risk side from the positive side. A single very risky dimension
// can therefore drag an otherwise strong candidate down instead of
// being averaged away inside one undifferentiated sum.
package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Weights maps dimension name to weight. Negative weights mark risk
// dimensions. A nil or empty map falls back to DefaultWeights.
type Weights map[string]float64

// DefaultWeights are product-tuning defaults, not invariants; callers
// override them from config.
func DefaultWeights() Weights {
	return Weights{
		"demand":         0.30,
		"contactability": 0.20,
		"hiring":         0.15,
		"geographic":     0.15,
		"partners":       0.20,
		"risk":           -1.0,
	}
}

// Penalty is one multiplicative constraint violation, applied as a
// (1 - Factor) scale after the weighted sum.
type Penalty struct {
	Reason string  `json:"reason"`
	Factor float64 `json:"factor"` // within [0,1]
}

// Scored is the explainable outcome.
type Scored struct {
	Overall   float64            `json:"overall"`   // 0..100
	Grade     string             `json:"grade"`     // A..F
	Breakdown map[string]float64 `json:"breakdown"` // dimension → 0..100
	Reasons   []string           `json:"reasons"`
}

// Score combines signal scores (each in [0,1]) under weights.
// Dimensions present in weights but absent from signals contribute
// zero, lowering confidence implicitly rather than erroring.
func Score(signals map[string]float64, weights Weights, penalties ...Penalty) Scored {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}

	var posSum, negSum float64
	for _, w := range weights {
		if w > 0 {
			posSum += w
		} else {
			negSum += -w
		}
	}

	out := Scored{Breakdown: make(map[string]float64, len(weights))}

	// Deterministic reason order.
	dims := make([]string, 0, len(weights))
	for d := range weights {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	var score float64
	for _, dim := range dims {
		w := weights[dim]
		v := clamp01(signals[dim])
		out.Breakdown[dim] = math.Round(v * 100)

		switch {
		case w > 0 && posSum > 0:
			score += v * (w / posSum)
		case w < 0 && negSum > 0:
			contribution := v * (-w / negSum)
			score -= contribution
			if contribution >= 0.2 {
				out.Reasons = append(out.Reasons, fmt.Sprintf("%s risk reduced the score materially", dim))
			}
		}
	}

	score *= 100
	for _, p := range penalties {
		f := clamp01(p.Factor)
		if f == 0 {
			continue
		}
		score *= 1 - f
		out.Reasons = append(out.Reasons, fmt.Sprintf("constraint penalty: %s", p.Reason))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	out.Overall = math.Round(score*10) / 10
	out.Grade = grade(out.Overall)
	return out
}

func grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
