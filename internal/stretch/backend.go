package stretch

import "context"

// CommandRunner executes an external command. Production code uses the
// exec-based defaultRunner; tests inject stubs.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Backend is a time-stretching implementation. Implementations clamp the
// requested speed multiplier to their accepted range and decompose it into
// however many primitive applications their tool needs.
type Backend interface {
	// Name identifies the backend in logs and results.
	Name() string
	// Binary returns the executable the backend shells out to.
	Binary() string
	// Clamp restricts a speed multiplier to the backend's accepted range.
	Clamp(multiplier float64) float64
	// Stretch speeds input up by multiplier and writes the result to
	// output, returning the per-stage plan that was applied. The
	// multiplier must already be clamped.
	Stretch(ctx context.Context, input, output string, multiplier float64) ([]float64, error)
}
