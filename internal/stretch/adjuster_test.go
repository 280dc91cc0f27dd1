package stretch

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"overdub/internal/services"
)

type fakeBackend struct {
	name    string
	clamp   Bounds
	stages  []float64
	err     error
	applied []float64
	payload []byte
}

func (f *fakeBackend) Name() string   { return f.name }
func (f *fakeBackend) Binary() string { return f.name }

func (f *fakeBackend) Clamp(multiplier float64) float64 {
	return f.clamp.Clamp(multiplier)
}

func (f *fakeBackend) Stretch(ctx context.Context, input, output string, multiplier float64) ([]float64, error) {
	f.applied = append(f.applied, multiplier)
	if f.err != nil {
		return nil, f.err
	}
	payload := f.payload
	if payload == nil {
		payload = []byte("stretched")
	}
	if err := os.WriteFile(output, payload, 0o644); err != nil {
		return nil, err
	}
	if f.stages != nil {
		return f.stages, nil
	}
	return []float64{multiplier}, nil
}

func staticProbe(durations map[string]float64) ProbeFunc {
	return func(ctx context.Context, path string) (float64, error) {
		if d, ok := durations[path]; ok {
			return d, nil
		}
		return 0, errors.New("probe: unknown file")
	}
}

func writeInput(t *testing.T, dir string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestAdjustWithinBounds(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, []byte("audio"))
	output := filepath.Join(dir, "output.wav")

	backend := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}}
	probe := staticProbe(map[string]float64{input: 12.0, output: 10.01})

	adjuster, err := NewAdjuster(probe, []Backend{backend}, 0.05, nil)
	if err != nil {
		t.Fatalf("NewAdjuster: %v", err)
	}

	result, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 10.0, Output: output})
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if !result.Processed {
		t.Fatal("expected processing")
	}
	if math.Abs(result.RequiredMultiplier-1.2) > 1e-9 {
		t.Fatalf("unexpected required multiplier: %v", result.RequiredMultiplier)
	}
	if result.Clamped() {
		t.Fatal("1.2 is in bounds, should not report clamping")
	}
	if result.Backend != "ffmpeg" {
		t.Fatalf("unexpected backend: %q", result.Backend)
	}
	if len(result.Plan) != 1 || math.Abs(result.Plan[0]-1.2) > 1e-9 {
		t.Fatalf("unexpected plan: %v", result.Plan)
	}
	if math.Abs(result.DurationError-0.01) > 1e-9 {
		t.Fatalf("unexpected duration error: %v", result.DurationError)
	}
}

func TestAdjustLargeMultiplierStaysUnclamped(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, []byte("audio"))
	output := filepath.Join(dir, "output.wav")

	backend := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}}
	probe := staticProbe(map[string]float64{input: 100.0, output: 2.0})

	adjuster, _ := NewAdjuster(probe, []Backend{backend}, 0.05, nil)
	result, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 2.0, Output: output})
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if math.Abs(result.RequiredMultiplier-50.0) > 1e-9 {
		t.Fatalf("unexpected multiplier: %v", result.RequiredMultiplier)
	}
	if result.Clamped() {
		t.Fatal("50.0 is within [0.5, 100], should not clamp")
	}
	if len(backend.applied) != 1 || backend.applied[0] != 50.0 {
		t.Fatalf("backend received %v, want [50]", backend.applied)
	}
}

func TestAdjustClampsAtUpperBound(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, []byte("audio"))
	output := filepath.Join(dir, "output.wav")

	backend := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}}
	probe := staticProbe(map[string]float64{input: 150.0, output: 1.5})

	adjuster, _ := NewAdjuster(probe, []Backend{backend}, 0.05, nil)
	result, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 1.0, Output: output})
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if result.AppliedMultiplier != 100.0 {
		t.Fatalf("expected clamp to 100, got %v", result.AppliedMultiplier)
	}
	if !result.Clamped() {
		t.Fatal("expected clamping to be reported")
	}
}

func TestAdjustNoopCopiesBytes(t *testing.T) {
	dir := t.TempDir()
	payload := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01, 0x02}
	input := writeInput(t, dir, payload)
	output := filepath.Join(dir, "output.wav")

	backend := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}}
	probe := staticProbe(map[string]float64{input: 10.0})

	adjuster, _ := NewAdjuster(probe, []Backend{backend}, 0.05, nil)
	result, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 10.0, Output: output})
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if result.Processed {
		t.Fatal("expected no-op")
	}
	if result.AppliedMultiplier != 1.0 {
		t.Fatalf("unexpected applied multiplier: %v", result.AppliedMultiplier)
	}
	if len(backend.applied) != 0 {
		t.Fatal("backend must not run for a no-op")
	}

	copied, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(copied, payload) {
		t.Fatal("output bytes differ from input")
	}
}

func TestAdjustFallsBackToSecondaryBackend(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, []byte("audio"))
	output := filepath.Join(dir, "output.wav")

	primary := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}, err: errors.New("codec failure")}
	secondary := &fakeBackend{name: "rubberband", clamp: Bounds{Min: 0.3, Max: 3.3}}
	probe := staticProbe(map[string]float64{input: 12.0, output: 10.0})

	adjuster, _ := NewAdjuster(probe, []Backend{primary, secondary}, 0.05, nil)
	result, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 10.0, Output: output})
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if result.Backend != "rubberband" {
		t.Fatalf("expected fallback backend, got %q", result.Backend)
	}
	if len(primary.applied) != 1 {
		t.Fatal("expected primary backend to be attempted first")
	}
}

func TestAdjustBothBackendsFailed(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, []byte("audio"))
	output := filepath.Join(dir, "output.wav")

	primary := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}, err: errors.New("primary boom")}
	secondary := &fakeBackend{name: "rubberband", clamp: Bounds{Min: 0.3, Max: 3.3}, err: errors.New("secondary boom")}
	probe := staticProbe(map[string]float64{input: 12.0})

	adjuster, _ := NewAdjuster(probe, []Backend{primary, secondary}, 0.05, nil)
	_, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 10.0, Output: output})
	if err == nil {
		t.Fatal("expected combined failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	for _, fragment := range []string{"primary boom", "secondary boom"} {
		if !containsString(err.Error(), fragment) {
			t.Fatalf("expected %q in error, got %v", fragment, err)
		}
	}
}

func TestAdjustValidatesRequest(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, []byte("audio"))

	backend := &fakeBackend{name: "ffmpeg", clamp: Bounds{Min: 0.5, Max: 100}}
	adjuster, _ := NewAdjuster(staticProbe(nil), []Backend{backend}, 0.05, nil)

	if _, err := adjuster.Adjust(context.Background(), Request{Input: filepath.Join(dir, "missing.wav"), TargetSeconds: 10, Output: "out.wav"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
	if _, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: 0, Output: "out.wav"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if _, err := adjuster.Adjust(context.Background(), Request{Input: input, TargetSeconds: -3, Output: "out.wav"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func containsString(haystack, needle string) bool {
	return bytes.Contains([]byte(haystack), []byte(needle))
}
