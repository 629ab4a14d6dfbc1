// Package stats is the numeric kernel shared by every analyzer: percentiles,
// moments, outlier filters, score normalization and safe arithmetic.
//
// All functions are pure and total.  Empty input, degenerate ranges and
// non-finite values never panic; NaN and ±Inf inputs are treated as missing.
package stats

import (
	"math"
	"sort"
)

// finiteValues returns a copy of values without NaN and ±Inf entries.
func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// sortedFinite returns the finite values of values in ascending order.
func sortedFinite(values []float64) []float64 {
	out := finiteValues(values)
	sort.Float64s(out)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Location and dispersion
// ─────────────────────────────────────────────────────────────────────────────

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks: k = (n-1)·p/100.  Empty input yields 0.
func Percentile(values []float64, p float64) float64 {
	s := sortedFinite(values)
	return percentileSorted(s, p)
}

func percentileSorted(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return s[0]
	}
	p = Clamp(p, 0, 100)
	k := float64(n-1) * p / 100
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return s[int(k)]
	}
	return s[int(f)]*(c-k) + s[int(c)]*(k-f)
}

// Mean returns the arithmetic mean, or 0 for empty input.  Values are summed
// in ascending order so the result does not depend on input order.
func Mean(values []float64) float64 {
	s := sortedFinite(values)
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Median returns the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// MeanStdDev returns the mean and the population standard deviation.  The
// standard deviation is 0 for fewer than two values.
func MeanStdDev(values []float64) (mean, stddev float64) {
	s := sortedFinite(values)
	if len(s) == 0 {
		return 0, 0
	}
	mean = Mean(s)
	if len(s) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range s {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(s)))
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	mean, sd := MeanStdDev(values)
	return SafeDivide(sd, mean, 0)
}

// PercentileRank returns the mid-rank percentile of v within values:
// (count below + ½·count equal) / n · 100.  Empty input yields 50.
func PercentileRank(values []float64, v float64) float64 {
	s := finiteValues(values)
	if len(s) == 0 || !isFinite(v) {
		return 50
	}
	var below, equal int
	for _, x := range s {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return (float64(below) + 0.5*float64(equal)) / float64(len(s)) * 100
}

// ─────────────────────────────────────────────────────────────────────────────
// Outlier filters
// ─────────────────────────────────────────────────────────────────────────────

// IQRMultiplier is the fence multiplier used by FilterOutliersIQR.
const IQRMultiplier = 1.5

// FilterOutliersIQR keeps the values within [Q1 − 1.5·IQR, Q3 + 1.5·IQR].
// Fewer than four values are returned unchanged (minus non-finite entries).
// The relative order of the kept values is preserved.
func FilterOutliersIQR(values []float64) []float64 {
	in := finiteValues(values)
	if len(in) < 4 {
		return in
	}
	s := make([]float64, len(in))
	copy(s, in)
	sort.Float64s(s)
	q1 := percentileSorted(s, 25)
	q3 := percentileSorted(s, 75)
	iqr := q3 - q1
	lo, hi := q1-IQRMultiplier*iqr, q3+IQRMultiplier*iqr

	out := make([]float64, 0, len(in))
	for _, v := range in {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// FilterOutliersZScore keeps the values within threshold standard deviations
// of the mean.  Fewer than three values, a zero deviation or a non-positive
// threshold return the input unchanged (minus non-finite entries).
func FilterOutliersZScore(values []float64, threshold float64) []float64 {
	in := finiteValues(values)
	if len(in) < 3 || threshold <= 0 {
		return in
	}
	mean, sd := MeanStdDev(in)
	if sd == 0 {
		return in
	}
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if math.Abs(v-mean)/sd <= threshold {
			out = append(out, v)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Normalization
// ─────────────────────────────────────────────────────────────────────────────

// NormalizeLinear maps v from [min,max] onto [0,100], clamping outside the
// range.  A degenerate range (max ≤ min) yields 50.  With inverse set the
// scale is flipped so that min maps to 100.
func NormalizeLinear(v, min, max float64, inverse bool) float64 {
	if !isFinite(v) || !isFinite(min) || !isFinite(max) {
		return 0
	}
	if max <= min {
		return 50
	}
	score := Clamp((v-min)/(max-min)*100, 0, 100)
	if inverse {
		return 100 - score
	}
	return score
}

// NormalizeLog is NormalizeLinear on a log10(1+x) scale, suited to heavy
// tailed counts such as reviews.  Values ≤ 0 score 0 (100 when inverse).
func NormalizeLog(v, min, max float64, inverse bool) float64 {
	if !isFinite(v) || !isFinite(min) || !isFinite(max) {
		return 0
	}
	if v <= 0 {
		if inverse {
			return 100
		}
		return 0
	}
	if max <= min {
		return 50
	}
	lmin := math.Log10(1 + math.Max(min, 0))
	lmax := math.Log10(1 + math.Max(max, 0))
	return NormalizeLinear(math.Log10(1+v), lmin, lmax, inverse)
}

// NormalizeSigmoid maps v onto (0,100) along 100/(1+e^(−k·(v−midpoint))).
// It saturates smoothly so very large values cannot dominate a composite.
// A non-positive steepness yields 50.
func NormalizeSigmoid(v, midpoint, steepness float64) float64 {
	if !isFinite(v) {
		return 0
	}
	if steepness <= 0 {
		return 50
	}
	return Clamp(100/(1+math.Exp(-steepness*(v-midpoint))), 0, 100)
}

// ─────────────────────────────────────────────────────────────────────────────
// Safe arithmetic
// ─────────────────────────────────────────────────────────────────────────────

// SafeDivide returns n/d, or def when d is 0 or either operand is not finite.
func SafeDivide(n, d, def float64) float64 {
	if d == 0 || !isFinite(n) || !isFinite(d) {
		return def
	}
	r := n / d
	if !isFinite(r) {
		return def
	}
	return r
}

// SafePercentage returns part/total·100, or 0 when total is 0.
func SafePercentage(part, total float64) float64 {
	return SafeDivide(part, total, 0) * 100
}

// Clamp limits v to [lo,hi].  NaN yields lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if !isFinite(v) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// MinMax returns the smallest and largest finite values, or (0,0) for empty
// input.
func MinMax(values []float64) (min, max float64) {
	s := finiteValues(values)
	if len(s) == 0 {
		return 0, 0
	}
	min, max = s[0], s[0]
	for _, v := range s[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
