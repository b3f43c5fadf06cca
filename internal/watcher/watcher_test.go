package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kelno/audio-journal-transcriber/internal/logging"
)

func startWatcher(t *testing.T, root string, quiet time.Duration, calls *atomic.Int32) *Watcher {
	t.Helper()
	w, err := New(root, quiet, func() { calls.Add(1) }, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitForCalls(t *testing.T, calls *atomic.Int32, want int32, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if calls.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d callbacks, got %d", want, calls.Load())
}

func TestBurstOfEventsFiresOneCallback(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, root, 200*time.Millisecond, &calls)

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "note.mp3"))
		time.Sleep(20 * time.Millisecond)
	}

	waitForCalls(t, &calls, 1, 3*time.Second)
	// Allow another full quiet period to pass and confirm no extra firing.
	time.Sleep(400 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 callback, got %d", got)
	}
}

func TestSpacedEventsFireSeparateCallbacks(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, root, 150*time.Millisecond, &calls)

	writeFile(t, filepath.Join(root, "first.mp3"))
	waitForCalls(t, &calls, 1, 3*time.Second)

	writeFile(t, filepath.Join(root, "second.mp3"))
	waitForCalls(t, &calls, 2, 3*time.Second)
}

func TestEventsInNewSubdirectoryAreSeen(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, root, 150*time.Millisecond, &calls)

	nested := filepath.Join(root, "memos")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to pick up the new directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(nested, "deep.mp3"))

	waitForCalls(t, &calls, 1, 3*time.Second)
}

func TestStopPreventsPendingCallback(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	w, err := New(root, 300*time.Millisecond, func() { calls.Add(1) }, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(root, "note.mp3"))
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	time.Sleep(500 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no callbacks after stop, got %d", got)
	}
}

func TestNewRejectsNilCallback(t *testing.T) {
	if _, err := New(t.TempDir(), time.Second, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
