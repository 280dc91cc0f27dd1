package services

import (
	"context"
	"testing"
)

func TestJobIDRoundTrip(t *testing.T) {
	ctx := WithJobID(context.Background(), 7)
	id, ok := JobIDFromContext(ctx)
	if !ok || id != 7 {
		t.Fatalf("expected job id 7, got %d (ok=%v)", id, ok)
	}
	if _, ok := JobIDFromContext(context.Background()); ok {
		t.Fatal("expected missing job id")
	}
}

func TestStageAndRequestID(t *testing.T) {
	ctx := WithStage(context.Background(), "download")
	ctx = WithRequestID(ctx, "abc")

	if stage, ok := StageFromContext(ctx); !ok || stage != "download" {
		t.Fatalf("unexpected stage: %q (ok=%v)", stage, ok)
	}
	if rid, ok := RequestIDFromContext(ctx); !ok || rid != "abc" {
		t.Fatalf("unexpected request id: %q (ok=%v)", rid, ok)
	}

	// Empty values do not annotate.
	ctx = WithStage(context.Background(), "")
	if _, ok := StageFromContext(ctx); ok {
		t.Fatal("expected no stage for empty value")
	}
}
