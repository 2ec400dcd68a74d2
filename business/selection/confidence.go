package selection

import "math"

// z-score of a two-sided 95% interval
const wilsonZ = 1.96

// ConfidenceBounds is a Wilson score interval for a caption's success rate.
type ConfidenceBounds struct {
	Lower float64
	Upper float64
	Width float64
}

func (b ConfidenceBounds) Midpoint() float64 {
	return (b.Lower + b.Upper) / 2
}

// WilsonBounds returns the 95% Wilson interval for successes out of
// successes+failures trials. With no trials the interval is [0, 1].
// Negative counts are treated as zero.
func WilsonBounds(successes, failures int) ConfidenceBounds {
	if successes < 0 {
		successes = 0
	}
	if failures < 0 {
		failures = 0
	}
	n := float64(successes + failures)
	if n == 0 {
		return ConfidenceBounds{Lower: 0, Upper: 1, Width: 1}
	}

	p := float64(successes) / n
	z2 := wilsonZ * wilsonZ
	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	margin := wilsonZ * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom

	lower := math.Max(0, center-margin)
	upper := math.Min(1, center+margin)
	return ConfidenceBounds{Lower: lower, Upper: upper, Width: upper - lower}
}
