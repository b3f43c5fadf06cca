package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteAudioFile drops a fake recording of the given size at path, creating
// parent directories as needed. The content is an arbitrary byte pattern;
// duration comes from the prober, never from the bytes. A size <= 0 writes a
// single byte.
func WriteAudioFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := bytes.Repeat([]byte("audio"), int(size/5)+1)
	if err := os.WriteFile(path, data[:size], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
