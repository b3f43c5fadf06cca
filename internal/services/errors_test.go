package services

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrTooShort, "bundle", "create", "duration 2.1s below minimum", nil)
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if !strings.Contains(err.Error(), "bundle: create") {
		t.Fatalf("expected component context in message, got %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fs.ErrNotExist
	err := Wrap(ErrExternalTool, "ffprobe", "inspect", "", cause)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
}
