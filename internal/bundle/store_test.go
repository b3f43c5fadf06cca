package bundle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/services"
)

type fakeProber struct {
	durations map[string]float64
	fails     map[string]error
}

func (p *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	if err, ok := p.fails[filepath.Base(path)]; ok {
		return 0, err
	}
	if seconds, ok := p.durations[filepath.Base(path)]; ok {
		return seconds, nil
	}
	return 60, nil
}

func newTestStore(t *testing.T, prober AudioProber) *Store {
	t.Helper()
	if prober == nil {
		prober = &fakeProber{}
	}
	return NewStore(t.TempDir(), prober, logging.NewNop())
}

func writeAudio(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestCreateFromAudioFile(t *testing.T) {
	store := newTestStore(t, &fakeProber{durations: map[string]float64{"note.mp3": 42.5}})
	inbox := t.TempDir()
	mtime := time.Date(2025, 3, 4, 17, 30, 0, 0, time.Local)
	path := writeAudio(t, inbox, "note.mp3", mtime)

	b, err := store.CreateFromAudioFile(context.Background(), path, 10)
	if err != nil {
		t.Fatalf("CreateFromAudioFile failed: %v", err)
	}
	if b.Name != "2025-03-04_note" {
		t.Fatalf("unexpected bundle name: %q", b.Name)
	}
	if b.Metadata.OriginalAudioFilename != "note.mp3" {
		t.Fatalf("unexpected original filename: %q", b.Metadata.OriginalAudioFilename)
	}
	if b.Metadata.AudioLengthSeconds != 42.5 {
		t.Fatalf("unexpected length: %v", b.Metadata.AudioLengthSeconds)
	}
	if b.SourceAudio != path {
		t.Fatalf("audio should stay in place until adoption, got %q", b.SourceAudio)
	}
}

func TestCreateFromAudioFileRejectsShortRecordings(t *testing.T) {
	store := newTestStore(t, &fakeProber{durations: map[string]float64{"blip.mp3": 2}})
	path := writeAudio(t, t.TempDir(), "blip.mp3", time.Time{})

	_, err := store.CreateFromAudioFile(context.Background(), path, 10)
	if !errors.Is(err, services.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestGatherPendingAudio(t *testing.T) {
	store := newTestStore(t, &fakeProber{durations: map[string]float64{
		"keep.mp3":  120,
		"deep.mp3":  90,
		"short.m4a": 3,
	}})
	inbox := t.TempDir()
	writeAudio(t, inbox, "keep.mp3", time.Time{})
	writeAudio(t, inbox, "short.m4a", time.Time{})
	if err := os.WriteFile(filepath.Join(inbox, "readme.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(inbox, "voice memos")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeAudio(t, nested, "deep.mp3", time.Time{})

	bundles, tooShort, err := store.GatherPendingAudio(context.Background(), inbox, 10)
	if err != nil {
		t.Fatalf("GatherPendingAudio failed: %v", err)
	}
	if len(bundles) != 2 {
		t.Fatalf("expected 2 bundles, got %+v", bundles)
	}
	found := map[string]bool{}
	for _, b := range bundles {
		found[filepath.Base(b.SourceAudio)] = true
	}
	if !found["keep.mp3"] || !found["deep.mp3"] {
		t.Fatalf("expected keep.mp3 and deep.mp3, got %v", found)
	}
	if len(tooShort) != 1 || filepath.Base(tooShort[0]) != "short.m4a" {
		t.Fatalf("unexpected tooShort list: %v", tooShort)
	}
}

func TestGatherPendingAudioSkipsStoreTree(t *testing.T) {
	inbox := t.TempDir()
	storeDir := filepath.Join(inbox, "bundles")
	store := NewStore(storeDir, &fakeProber{}, logging.NewNop())
	writeAudio(t, inbox, "new.mp3", time.Time{})
	adopted := filepath.Join(storeDir, "2024-01-01_old")
	if err := os.MkdirAll(adopted, 0o755); err != nil {
		t.Fatal(err)
	}
	writeAudio(t, adopted, "old.mp3", time.Time{})

	bundles, _, err := store.GatherPendingAudio(context.Background(), inbox, 0)
	if err != nil {
		t.Fatalf("GatherPendingAudio failed: %v", err)
	}
	if len(bundles) != 1 || filepath.Base(bundles[0].SourceAudio) != "new.mp3" {
		t.Fatalf("expected only the inbox recording, got %+v", bundles)
	}
}

func TestGatherPendingAudioSkipsUnreadableRecordings(t *testing.T) {
	store := newTestStore(t, &fakeProber{fails: map[string]error{
		"corrupt.mp3": services.Wrap(services.ErrExternalTool, "ffprobe", "duration", "moov atom not found", nil),
	}})
	inbox := t.TempDir()
	writeAudio(t, inbox, "corrupt.mp3", time.Time{})
	writeAudio(t, inbox, "good.mp3", time.Time{})

	bundles, tooShort, err := store.GatherPendingAudio(context.Background(), inbox, 0)
	if err != nil {
		t.Fatalf("GatherPendingAudio failed: %v", err)
	}
	if len(bundles) != 1 || filepath.Base(bundles[0].SourceAudio) != "good.mp3" {
		t.Fatalf("expected only the healthy recording, got %+v", bundles)
	}
	if len(tooShort) != 0 {
		t.Fatalf("unreadable recordings are not short recordings: %v", tooShort)
	}
}

func TestGatherPendingAudioRequiresInputDir(t *testing.T) {
	store := newTestStore(t, nil)
	_, _, err := store.GatherPendingAudio(context.Background(), filepath.Join(t.TempDir(), "missing"), 0)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestAdoptAudioMovesRecordingIntoStore(t *testing.T) {
	store := newTestStore(t, nil)
	inbox := t.TempDir()
	path := writeAudio(t, inbox, "note.mp3", time.Time{})

	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatalf("AdoptAudio failed: %v", err)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected source audio to be moved out of the inbox")
	}
	adopted := filepath.Join(b.Dir(store.Dir()), "note.mp3")
	if b.SourceAudio != adopted {
		t.Fatalf("expected SourceAudio %q, got %q", adopted, b.SourceAudio)
	}
	if _, err := os.Stat(adopted); err != nil {
		t.Fatalf("adopted audio missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(b.Dir(store.Dir()), MetadataFilename)); err != nil {
		t.Fatalf("metadata missing after adoption: %v", err)
	}
}

func TestLoadFromDirectoryRoundTrip(t *testing.T) {
	store := newTestStore(t, nil)
	path := writeAudio(t, t.TempDir(), "note.mp3", time.Time{})

	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatal(err)
	}
	if err := store.SetTranscript(b, "hello world", "whisper-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetSummary(b, "a greeting", "gpt-4o-mini"); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadFromDirectory(b.Dir(store.Dir()))
	if err != nil {
		t.Fatalf("LoadFromDirectory failed: %v", err)
	}
	if loaded.Name != b.Name {
		t.Fatalf("name mismatch: %q != %q", loaded.Name, b.Name)
	}
	if loaded.Metadata != b.Metadata {
		t.Fatalf("metadata mismatch: %+v != %+v", loaded.Metadata, b.Metadata)
	}
	if loaded.Transcript != "hello world" || loaded.Summary != "a greeting" {
		t.Fatalf("content mismatch: %q / %q", loaded.Transcript, loaded.Summary)
	}
	if filepath.Base(loaded.SourceAudio) != "note.mp3" {
		t.Fatalf("unexpected audio path: %q", loaded.SourceAudio)
	}
}

func TestLoadFromDirectoryRequiresMetadata(t *testing.T) {
	store := newTestStore(t, nil)
	dir := filepath.Join(store.Dir(), "2024-01-01_stray")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeAudio(t, dir, "stray.mp3", time.Time{})

	if _, err := store.LoadFromDirectory(dir); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoadFromDirectoryRejectsDuplicateAudio(t *testing.T) {
	store := newTestStore(t, nil)
	path := writeAudio(t, t.TempDir(), "note.mp3", time.Time{})
	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatal(err)
	}
	writeAudio(t, b.Dir(store.Dir()), "extra.mp3", time.Time{})

	if _, err := store.LoadFromDirectory(b.Dir(store.Dir())); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate audio, got %v", err)
	}
}

func TestGatherExistingSkipsBrokenBundles(t *testing.T) {
	store := newTestStore(t, nil)
	path := writeAudio(t, t.TempDir(), "good.mp3", time.Time{})
	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(store.Dir(), "2024-01-01_broken"), 0o755); err != nil {
		t.Fatal(err)
	}

	bundles, err := store.GatherExisting()
	if err != nil {
		t.Fatalf("GatherExisting failed: %v", err)
	}
	if len(bundles) != 1 || bundles[0].Name != b.Name {
		t.Fatalf("expected only the intact bundle, got %+v", bundles)
	}
}

func TestGatherExistingEmptyStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nonexistent"), &fakeProber{}, logging.NewNop())
	bundles, err := store.GatherExisting()
	if err != nil {
		t.Fatalf("expected no error for missing store, got %v", err)
	}
	if len(bundles) != 0 {
		t.Fatalf("expected no bundles, got %d", len(bundles))
	}
}

func TestRenamePreservesDatePrefix(t *testing.T) {
	store := newTestStore(t, nil)
	path := writeAudio(t, t.TempDir(), "2024-01-17_raw.mp3", time.Time{})
	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatal(err)
	}

	if err := store.Rename(b, "Morning Walk Thoughts"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if b.Name != "2024-01-17 Morning Walk Thoughts" {
		t.Fatalf("unexpected name: %q", b.Name)
	}
	if !b.Metadata.BundleNameGenerated {
		t.Fatal("expected BundleNameGenerated to be set")
	}
	if _, err := os.Stat(b.Dir(store.Dir())); err != nil {
		t.Fatalf("renamed directory missing: %v", err)
	}
	if filepath.Dir(b.SourceAudio) != b.Dir(store.Dir()) {
		t.Fatalf("audio path not updated: %q", b.SourceAudio)
	}

	loaded, err := store.LoadFromDirectory(b.Dir(store.Dir()))
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Metadata.BundleNameGenerated {
		t.Fatal("expected persisted BundleNameGenerated")
	}
}

func TestRenameRejectsUnsafeOrEmptySuffix(t *testing.T) {
	store := newTestStore(t, nil)
	path := writeAudio(t, t.TempDir(), "2024-01-17_raw.mp3", time.Time{})
	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatal(err)
	}

	if err := store.Rename(b, "///"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRenameRequiresExistingDirectory(t *testing.T) {
	store := newTestStore(t, nil)
	b := &Bundle{Name: "2024-01-17_ghost"}
	if err := store.Rename(b, "New Name"); err == nil {
		t.Fatal("expected error renaming a bundle with no directory")
	}
}

func TestNeedsAudioRemoval(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	store := NewStore(t.TempDir(), &fakeProber{}, logging.NewNop(), WithClock(func() time.Time { return now }))

	oldMtime := now.AddDate(0, 0, -40)
	path := writeAudio(t, t.TempDir(), "old.mp3", oldMtime)
	old := &Bundle{Name: "2025-04-01_old", SourceAudio: path}

	if !store.NeedsAudioRemoval(old, 30) {
		t.Fatal("expected removal for audio past retention on both clocks")
	}
	if store.NeedsAudioRemoval(old, 0) {
		t.Fatal("retention of 0 must never remove")
	}
	if store.NeedsAudioRemoval(old, -1) {
		t.Fatal("negative retention must never remove")
	}

	old.Metadata.KeepForever = true
	if store.NeedsAudioRemoval(old, 30) {
		t.Fatal("keep_forever must block removal")
	}
	old.Metadata.KeepForever = false

	// Name says old, but the file was copied in recently.
	freshPath := writeAudio(t, t.TempDir(), "fresh.mp3", now.AddDate(0, 0, -2))
	freshCopy := &Bundle{Name: "2025-04-01_freshcopy", SourceAudio: freshPath}
	if store.NeedsAudioRemoval(freshCopy, 30) {
		t.Fatal("recently modified audio must not be removed")
	}

	noAudio := &Bundle{Name: "2025-04-01_empty"}
	if store.NeedsAudioRemoval(noAudio, 30) {
		t.Fatal("bundle without audio has nothing to remove")
	}
}

func TestDeleteAudio(t *testing.T) {
	store := newTestStore(t, nil)
	path := writeAudio(t, t.TempDir(), "note.mp3", time.Time{})
	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AdoptAudio(b); err != nil {
		t.Fatal(err)
	}
	audioPath := b.SourceAudio

	if err := store.DeleteAudio(b); err != nil {
		t.Fatalf("DeleteAudio failed: %v", err)
	}
	if b.HasAudio() {
		t.Fatal("expected SourceAudio cleared")
	}
	if _, err := os.Stat(audioPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected audio file removed from disk")
	}
	// Deleting again is a no-op.
	if err := store.DeleteAudio(b); err != nil {
		t.Fatalf("second DeleteAudio failed: %v", err)
	}
}
