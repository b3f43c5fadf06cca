package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kelno/audio-journal-transcriber/internal/bundle"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/testsupport"
)

type fakeAI struct {
	transcript    string
	transcriptErr error
	summary       string
	summaryErr    error
	shortName     string
	shortNameErr  error

	transcribeCalls int
	summarizeCalls  int
	shortNameCalls  int
}

func (f *fakeAI) Transcribe(context.Context, string) (string, error) {
	f.transcribeCalls++
	return f.transcript, f.transcriptErr
}

func (f *fakeAI) Summarize(context.Context, string) (string, error) {
	f.summarizeCalls++
	return f.summary, f.summaryErr
}

func (f *fakeAI) ShortName(context.Context, string) (string, error) {
	f.shortNameCalls++
	return f.shortName, f.shortNameErr
}

func newRunnerEnv(t *testing.T, ai AIService) (Env, *bundle.Store) {
	t.Helper()
	store := bundle.NewStore(t.TempDir(), testsupport.StubProber{}, logging.NewNop())
	return Env{
		Store: store,
		AI:    ai,
		Settings: Settings{
			SummaryEnabled:  true,
			TranscribeModel: "whisper-1",
			SummaryModel:    "gpt-4o-mini",
		},
		Logger: logging.NewNop(),
	}, store
}

func newInboxBundle(t *testing.T, store *bundle.Store, name string) *bundle.Bundle {
	t.Helper()
	inbox := t.TempDir()
	path := filepath.Join(inbox, name)
	testsupport.WriteAudioFile(t, path, 32)
	b, err := store.CreateFromAudioFile(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRunnerProcessesFullBundleLifecycle(t *testing.T) {
	ai := &fakeAI{transcript: "the transcript", summary: "the summary", shortName: "Morning Walk"}
	env, store := newRunnerEnv(t, ai)
	runner := NewRunner(env)
	b := newInboxBundle(t, store, "note.mp3")

	list := Resolve(store, b, env.Settings)
	unprocessed := runner.Process(context.Background(), []BundleJobs{{Bundle: b, Jobs: list}})
	if len(unprocessed) != 0 {
		t.Fatalf("expected no unprocessed bundles, got %d", len(unprocessed))
	}

	if !strings.HasSuffix(b.Name, " Morning Walk") {
		t.Fatalf("expected renamed bundle, got %q", b.Name)
	}
	if b.Transcript != "the transcript" || b.Summary != "the summary" {
		t.Fatalf("unexpected content: %q / %q", b.Transcript, b.Summary)
	}
	if b.Metadata.TranscriptModelUsed != "whisper-1" || b.Metadata.SummaryModelUsed != "gpt-4o-mini" {
		t.Fatalf("models not recorded: %+v", b.Metadata)
	}

	loaded, err := store.LoadFromDirectory(b.Dir(store.Dir()))
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Metadata.BundleNameGenerated {
		t.Fatal("expected persisted name generation flag")
	}
	if len(Resolve(store, loaded, env.Settings)) != 0 {
		t.Fatal("expected fully processed bundle to have no pending jobs")
	}
}

func TestRunnerIsolatesFailuresPerBundle(t *testing.T) {
	ai := &fakeAI{transcriptErr: errors.New("service down")}
	env, store := newRunnerEnv(t, ai)
	env.Settings.SummaryEnabled = false
	runner := NewRunner(env)

	failing := newInboxBundle(t, store, "broken.mp3")
	healthy := &bundle.Bundle{Name: "2024-01-02_done", Transcript: "done", Metadata: bundle.Metadata{BundleNameGenerated: true}}

	failingJobs := Resolve(store, failing, env.Settings)
	all := []BundleJobs{
		{Bundle: failing, Jobs: failingJobs},
		{Bundle: healthy, Jobs: nil},
	}

	unprocessed := runner.Process(context.Background(), all)
	if len(unprocessed) != 1 {
		t.Fatalf("expected 1 unprocessed bundle, got %d", len(unprocessed))
	}
	if unprocessed[0].Bundle != failing {
		t.Fatal("wrong bundle reported unprocessed")
	}
	// The create job succeeded, so only the failed transcription remains.
	if got := jobNames(unprocessed[0].Jobs); len(got) != 1 || got[0] != "transcribe" {
		t.Fatalf("expected remaining [transcribe], got %v", got)
	}
	// The move still happened before the failure.
	if filepath.Dir(failing.SourceAudio) != failing.Dir(store.Dir()) {
		t.Fatal("expected audio adopted before transcription failed")
	}
}

func TestRunnerRejectsEmptyTranscript(t *testing.T) {
	ai := &fakeAI{transcript: "   \n"}
	env, store := newRunnerEnv(t, ai)
	env.Settings.SummaryEnabled = false
	runner := NewRunner(env)
	b := newInboxBundle(t, store, "silent.mp3")

	list := Resolve(store, b, env.Settings)
	unprocessed := runner.Process(context.Background(), []BundleJobs{{Bundle: b, Jobs: list}})
	if len(unprocessed) != 1 {
		t.Fatal("expected empty transcript to fail the bundle")
	}
	if b.HasTranscript() {
		t.Fatal("empty transcript must not be stored")
	}
	if _, err := os.Stat(b.TranscriptPath(store.Dir())); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("transcript file must not exist")
	}
}

func TestRunnerRejectsOverlongGeneratedName(t *testing.T) {
	ai := &fakeAI{
		transcript: "text",
		summary:    "sum",
		shortName:  strings.Repeat("x", 90),
	}
	env, store := newRunnerEnv(t, ai)
	runner := NewRunner(env)
	b := newInboxBundle(t, store, "note.mp3")
	originalName := b.Name

	list := Resolve(store, b, env.Settings)
	unprocessed := runner.Process(context.Background(), []BundleJobs{{Bundle: b, Jobs: list}})
	if len(unprocessed) != 1 {
		t.Fatal("expected overlong name to fail the bundle")
	}
	if b.Name != originalName {
		t.Fatalf("bundle must not be renamed, got %q", b.Name)
	}
	if b.Metadata.BundleNameGenerated {
		t.Fatal("name generation flag must stay unset")
	}
	loaded, err := store.LoadFromDirectory(b.Dir(store.Dir()))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Metadata.BundleNameGenerated {
		t.Fatal("persisted metadata must stay unchanged")
	}
}

func TestRunnerDryRunSkipsMutationsAndAICalls(t *testing.T) {
	ai := &fakeAI{transcript: "text", summary: "sum", shortName: "Name"}
	env, store := newRunnerEnv(t, ai)
	env.DryRun = true
	runner := NewRunner(env)
	b := newInboxBundle(t, store, "note.mp3")
	source := b.SourceAudio

	list := Resolve(store, b, env.Settings)
	unprocessed := runner.Process(context.Background(), []BundleJobs{{Bundle: b, Jobs: list}})
	if len(unprocessed) != 0 {
		t.Fatalf("dry run must not fail, got %d unprocessed", len(unprocessed))
	}
	if ai.transcribeCalls+ai.summarizeCalls+ai.shortNameCalls != 0 {
		t.Fatal("dry run must not call the AI service")
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatal("dry run must not move the audio file")
	}
	if _, err := os.Stat(b.Dir(store.Dir())); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("dry run must not create the bundle directory")
	}
}

func TestRunnerReportsPreconditionViolations(t *testing.T) {
	env, _ := newRunnerEnv(t, &fakeAI{})
	runner := NewRunner(env)
	b := &bundle.Bundle{Name: "2024-01-02_empty"}

	all := []BundleJobs{{Bundle: b, Jobs: []Job{TranscriptionJob{Bundle: b}}}}
	unprocessed := runner.Process(context.Background(), all)
	if len(unprocessed) != 1 {
		t.Fatal("expected precondition violation to fail the bundle")
	}
}
