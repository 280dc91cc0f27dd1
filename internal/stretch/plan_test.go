package stretch

import (
	"math"
	"testing"
)

func TestPlanInBoundsValueIsSingleStage(t *testing.T) {
	bounds := Bounds{Min: 0.5, Max: 2.0}
	for _, value := range []float64{0.5, 0.75, 1.0, 1.2, 2.0} {
		stages, err := Plan(value, bounds)
		if err != nil {
			t.Fatalf("Plan(%v) returned error: %v", value, err)
		}
		if len(stages) != 1 || stages[0] != value {
			t.Fatalf("Plan(%v) = %v, want single stage", value, stages)
		}
	}
}

func TestPlanDecomposesAboveUpperBound(t *testing.T) {
	bounds := Bounds{Min: 0.5, Max: 2.0}
	for _, value := range []float64{2.5, 4.0, 10.0, 50.0, 100.0} {
		stages, err := Plan(value, bounds)
		if err != nil {
			t.Fatalf("Plan(%v) returned error: %v", value, err)
		}
		for _, stage := range stages {
			if stage > bounds.Max {
				t.Fatalf("Plan(%v) stage %v exceeds upper bound", value, stage)
			}
			if stage < bounds.Min {
				t.Fatalf("Plan(%v) stage %v below lower bound", value, stage)
			}
		}
		product := Product(stages)
		if math.Abs(product-value)/value > 1e-6 {
			t.Fatalf("Plan(%v) product %v outside tolerance", value, product)
		}
	}
}

func TestPlanDecomposesBelowLowerBound(t *testing.T) {
	bounds := Bounds{Min: 0.3, Max: 3.0}
	for _, value := range []float64{0.25, 0.1, 0.02, 0.01} {
		stages, err := Plan(value, bounds)
		if err != nil {
			t.Fatalf("Plan(%v) returned error: %v", value, err)
		}
		for _, stage := range stages {
			if stage < bounds.Min {
				t.Fatalf("Plan(%v) stage %v below lower bound", value, stage)
			}
			if stage > bounds.Max {
				t.Fatalf("Plan(%v) stage %v above upper bound", value, stage)
			}
		}
		product := Product(stages)
		if math.Abs(product-value)/value > 1e-6 {
			t.Fatalf("Plan(%v) product %v outside tolerance", value, product)
		}
	}
}

func TestPlanDropsNoopRemainder(t *testing.T) {
	bounds := Bounds{Min: 0.5, Max: 2.0}
	// 4.0 peels into exactly two stages of 2.0; the remainder of 1.0 is
	// omitted rather than emitted as a useless stage.
	stages, err := Plan(4.0, bounds)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected [2, 2], got %v", stages)
	}
	for _, stage := range stages {
		if stage != 2.0 {
			t.Fatalf("expected [2, 2], got %v", stages)
		}
	}
}

func TestPlanExampleHundredfold(t *testing.T) {
	// 100s of audio squeezed into 1s: the clamped multiplier sits at the
	// upper clamp bound and decomposes into atempo stages of at most 2.
	stages, err := Plan(100.0, Bounds{Min: 0.5, Max: 2.0})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	product := Product(stages)
	if math.Abs(product-100.0)/100.0 > 1e-6 {
		t.Fatalf("product %v outside tolerance", product)
	}
	for _, stage := range stages {
		if stage > 2.0 {
			t.Fatalf("stage %v above bound", stage)
		}
	}
}

func TestPlanRejectsInvalidValues(t *testing.T) {
	bounds := Bounds{Min: 0.5, Max: 2.0}
	for _, value := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Plan(value, bounds); err == nil {
			t.Fatalf("expected error for value %v", value)
		}
	}
}

func TestPlanRejectsMisconfiguredBounds(t *testing.T) {
	cases := []Bounds{
		{Min: 1.5, Max: 2.0},  // lower bound above 1
		{Min: 0.2, Max: 0.8},  // upper bound below 1
		{Min: 2.0, Max: 0.5},  // inverted
		{Min: 0, Max: 2.0},    // zero lower bound
		{Min: -0.5, Max: 2.0}, // negative lower bound
	}
	for _, bounds := range cases {
		if _, err := Plan(10.0, bounds); err == nil {
			t.Fatalf("expected error for bounds %+v", bounds)
		}
	}
}

func TestClampIsIdempotent(t *testing.T) {
	bounds := Bounds{Min: 0.5, Max: 100.0}
	for _, value := range []float64{0.5, 1.0, 42.0, 100.0} {
		if got := bounds.Clamp(value); got != value {
			t.Fatalf("Clamp(%v) = %v, want unchanged", value, got)
		}
		if got := bounds.Clamp(bounds.Clamp(value)); got != value {
			t.Fatalf("double clamp changed value: %v", got)
		}
	}
	if got := bounds.Clamp(150.0); got != 100.0 {
		t.Fatalf("Clamp(150) = %v, want 100", got)
	}
	if got := bounds.Clamp(0.1); got != 0.5 {
		t.Fatalf("Clamp(0.1) = %v, want 0.5", got)
	}
}
