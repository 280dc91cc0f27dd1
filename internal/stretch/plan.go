package stretch

import (
	"fmt"
	"math"
)

// Bounds describes the closed range of values a stretch primitive accepts
// for a single application.
type Bounds struct {
	Min float64
	Max float64
}

// planIterationCap bounds the peeling loop. Misconfigured bounds (for
// example a lower bound above 1) could otherwise oscillate forever.
const planIterationCap = 64

// remainderTolerance is the distance from 1.0 below which a final plan
// stage is dropped as a no-op.
const remainderTolerance = 1e-9

func (b Bounds) valid() bool {
	return b.Min > 0 && b.Min < b.Max && b.Min <= 1 && b.Max >= 1
}

// Contains reports whether value falls within the bounds.
func (b Bounds) Contains(value float64) bool {
	return value >= b.Min && value <= b.Max
}

// Clamp restricts value to the bounds. Clamping an in-range value returns
// it unchanged.
func (b Bounds) Clamp(value float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, value))
}

// Plan decomposes value into an ordered sequence of stage values, each
// within bounds, whose product equals value. An in-range value yields a
// single-element plan. Out-of-range values are peeled one bound at a time:
// above the upper bound the remainder is divided by Max, below the lower
// bound it is divided by Min, until the remainder is back in range. A
// remainder indistinguishable from 1.0 is omitted.
func Plan(value float64, bounds Bounds) ([]float64, error) {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("stretch plan: invalid value %v", value)
	}
	if !bounds.valid() {
		return nil, fmt.Errorf("stretch plan: invalid bounds [%v, %v]", bounds.Min, bounds.Max)
	}

	if bounds.Contains(value) {
		return []float64{value}, nil
	}

	stages := make([]float64, 0, 4)
	remainder := value
	for i := 0; !bounds.Contains(remainder); i++ {
		if i >= planIterationCap {
			return nil, fmt.Errorf("stretch plan: no decomposition of %v within [%v, %v] after %d stages", value, bounds.Min, bounds.Max, planIterationCap)
		}
		switch {
		case remainder > bounds.Max:
			stages = append(stages, bounds.Max)
			remainder /= bounds.Max
		case remainder < bounds.Min:
			stages = append(stages, bounds.Min)
			remainder /= bounds.Min
		}
	}
	if math.Abs(remainder-1) > remainderTolerance {
		stages = append(stages, remainder)
	}
	return stages, nil
}

// Product multiplies the plan stages back together.
func Product(stages []float64) float64 {
	product := 1.0
	for _, stage := range stages {
		product *= stage
	}
	return product
}
