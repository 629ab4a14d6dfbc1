package stats

import (
	"math"
	"sort"
)

// ─────────────────────────────────────────────────────────────────────────────
// Weighted composites
// ─────────────────────────────────────────────────────────────────────────────

// WeightTolerance is the allowed deviation of a weight table sum from 1.0.
const WeightTolerance = 1e-9

// Component is one term of a weighted composite.
type Component struct {
	Name   string
	Score  float64
	Weight float64
}

// WeightedSum returns Σ score·weight, clamped to [0,100].
func WeightedSum(components ...Component) float64 {
	var total float64
	for _, c := range components {
		if !isFinite(c.Score) {
			continue
		}
		total += c.Score * c.Weight
	}
	return Clamp(total, 0, 100)
}

// SumWeights returns the sum of the component weights.
func SumWeights(components ...Component) float64 {
	var total float64
	for _, c := range components {
		total += c.Weight
	}
	return total
}

// WeightsValid reports whether weights sum to 1 within WeightTolerance.
func WeightsValid(weights ...float64) bool {
	var total float64
	for _, w := range weights {
		if w < 0 {
			return false
		}
		total += w
	}
	return math.Abs(total-1) <= WeightTolerance
}

// ─────────────────────────────────────────────────────────────────────────────
// Grades
// ─────────────────────────────────────────────────────────────────────────────

// GradeLevel is the letter grade of a 0..100 score.
type GradeLevel string

const (
	GradeAPlus GradeLevel = "A+"
	GradeA     GradeLevel = "A"
	GradeBPlus GradeLevel = "B+"
	GradeB     GradeLevel = "B"
	GradeC     GradeLevel = "C"
	GradeD     GradeLevel = "D"
	GradeF     GradeLevel = "F"
)

// Grade maps a 0..100 score to a letter grade.
func Grade(score float64) GradeLevel {
	switch {
	case score >= 90:
		return GradeAPlus
	case score >= 80:
		return GradeA
	case score >= 70:
		return GradeBPlus
	case score >= 60:
		return GradeB
	case score >= 50:
		return GradeC
	case score >= 35:
		return GradeD
	default:
		return GradeF
	}
}

// Levels returned by Level.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Level maps a 0..100 score to high (≥70), medium (≥40) or low.
func Level(score float64) string {
	switch {
	case score >= 70:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Concentration
// ─────────────────────────────────────────────────────────────────────────────

// HHI returns the Herfindahl-Hirschman index Σ share² for shares expressed
// in percentage points, so a monopoly scores 10000.
func HHI(sharesPct []float64) float64 {
	var total float64
	for _, s := range sharesPct {
		if isFinite(s) {
			total += s * s
		}
	}
	return total
}

// ConcentrationRatio returns the combined share of the n largest shares.
func ConcentrationRatio(sharesPct []float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	s := finiteValues(sharesPct)
	sort.Sort(sort.Reverse(sort.Float64Slice(s)))
	if n > len(s) {
		n = len(s)
	}
	var total float64
	for _, v := range s[:n] {
		total += v
	}
	return total
}
