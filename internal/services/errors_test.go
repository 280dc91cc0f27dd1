package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "stretch", "ffmpeg", "atempo chain failed", underlying)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "external tool error: stretch: ffmpeg: atempo chain failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapSkipsEmptyParts(t *testing.T) {
	err := Wrap(ErrValidation, "stretch", "", "target duration must be positive", nil)
	want := "validation error: stretch: target duration must be positive"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
