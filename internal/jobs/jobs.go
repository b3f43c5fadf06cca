package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kelno/audio-journal-transcriber/internal/bundle"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/services"
)

// maxGeneratedNameLength caps AI-generated bundle names. Longer responses
// mean the model ignored the prompt and the result is rejected outright.
const maxGeneratedNameLength = 60

// AIService is the slice of the AI client jobs depend on.
type AIService interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Summarize(ctx context.Context, transcript string) (string, error)
	ShortName(ctx context.Context, summary string) (string, error)
}

// Settings holds the configuration jobs and the resolver read. All fields
// are consulted read-only.
type Settings struct {
	SummaryEnabled  bool
	RetentionDays   int
	TranscribeModel string
	SummaryModel    string
}

// Env carries the collaborators a job uses at execution time. DryRun makes
// every job log its intent and skip mutations and side-effecting AI calls.
type Env struct {
	Store    *bundle.Store
	AI       AIService
	Settings Settings
	Logger   *slog.Logger
	DryRun   bool
}

// Job is one unit of work over a single bundle.
type Job interface {
	// Describe identifies the job and its bundle in logs.
	Describe() string
	Run(ctx context.Context, env Env) error
}

// CreateBundleJob moves a newly discovered audio file into its bundle
// directory under the store.
type CreateBundleJob struct {
	Bundle *bundle.Bundle
}

func (j CreateBundleJob) Describe() string {
	return fmt.Sprintf("CreateBundleJob(%s)", j.Bundle.Name)
}

func (j CreateBundleJob) Run(ctx context.Context, env Env) error {
	if !j.Bundle.HasAudio() {
		return services.Wrap(services.ErrJobPrecondition, "jobs", "create-bundle",
			fmt.Sprintf("bundle %s has no audio file set", j.Bundle.Name), nil)
	}
	target := j.Bundle.AudioPathIn(env.Store.Dir())
	env.Logger.Info("moving recording into store",
		logging.String("from", j.Bundle.SourceAudio),
		logging.String("to", target))
	if env.DryRun {
		return nil
	}
	return env.Store.AdoptAudio(j.Bundle)
}

// TranscriptionJob produces the bundle's transcript via the AI service.
type TranscriptionJob struct {
	Bundle *bundle.Bundle
}

func (j TranscriptionJob) Describe() string {
	return fmt.Sprintf("TranscriptionJob(%s)", j.Bundle.Name)
}

func (j TranscriptionJob) Run(ctx context.Context, env Env) error {
	if !j.Bundle.HasAudio() {
		return services.Wrap(services.ErrJobPrecondition, "jobs", "transcribe",
			fmt.Sprintf("bundle %s has no audio file set", j.Bundle.Name), nil)
	}
	env.Logger.Info("transcribing recording",
		logging.String("bundle", j.Bundle.Name),
		logging.String("audio", filepath.Base(j.Bundle.SourceAudio)))
	if env.DryRun {
		return nil
	}

	transcript, err := env.AI.Transcribe(ctx, j.Bundle.SourceAudio)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return services.Wrap(services.ErrValidation, "jobs", "transcribe",
			fmt.Sprintf("bundle %s produced an empty transcript", j.Bundle.Name), nil)
	}
	return env.Store.SetTranscript(j.Bundle, transcript, env.Settings.TranscribeModel)
}

// SummaryJob produces the bundle's summary from its transcript.
type SummaryJob struct {
	Bundle *bundle.Bundle
}

func (j SummaryJob) Describe() string {
	return fmt.Sprintf("SummaryJob(%s)", j.Bundle.Name)
}

func (j SummaryJob) Run(ctx context.Context, env Env) error {
	env.Logger.Info("summarizing transcript", logging.String("bundle", j.Bundle.Name))
	if env.DryRun {
		return nil
	}
	if !j.Bundle.HasTranscript() {
		return services.Wrap(services.ErrJobPrecondition, "jobs", "summarize",
			fmt.Sprintf("bundle %s has no transcript to summarize", j.Bundle.Name), nil)
	}

	summary, err := env.AI.Summarize(ctx, j.Bundle.Transcript)
	if err != nil {
		return err
	}
	return env.Store.SetSummary(j.Bundle, summary, env.Settings.SummaryModel)
}

// BundleNameJob asks the AI service for a short descriptive title and
// renames the bundle directory to carry it.
type BundleNameJob struct {
	Bundle *bundle.Bundle
}

func (j BundleNameJob) Describe() string {
	return fmt.Sprintf("BundleNameJob(%s)", j.Bundle.Name)
}

func (j BundleNameJob) Run(ctx context.Context, env Env) error {
	env.Logger.Info("generating bundle name", logging.String("bundle", j.Bundle.Name))
	if env.DryRun {
		return nil
	}
	if !j.Bundle.HasSummary() {
		return services.Wrap(services.ErrJobPrecondition, "jobs", "name",
			fmt.Sprintf("bundle %s has no summary to derive a name from", j.Bundle.Name), nil)
	}

	name, err := env.AI.ShortName(ctx, j.Bundle.Summary)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if len(name) > maxGeneratedNameLength {
		return services.Wrap(services.ErrValidation, "jobs", "name",
			fmt.Sprintf("generated name exceeds %d characters: %q", maxGeneratedNameLength, name), nil)
	}
	return env.Store.Rename(j.Bundle, name)
}

// DeleteAudioFileJob removes audio that aged past the retention window.
type DeleteAudioFileJob struct {
	Bundle *bundle.Bundle
}

func (j DeleteAudioFileJob) Describe() string {
	return fmt.Sprintf("DeleteAudioFileJob(%s)", j.Bundle.Name)
}

func (j DeleteAudioFileJob) Run(ctx context.Context, env Env) error {
	if !j.Bundle.HasAudio() {
		return services.Wrap(services.ErrJobPrecondition, "jobs", "delete-audio",
			fmt.Sprintf("bundle %s has no audio file set", j.Bundle.Name), nil)
	}
	env.Logger.Info("deleting expired recording",
		logging.String("bundle", j.Bundle.Name),
		logging.String("audio", filepath.Base(j.Bundle.SourceAudio)))
	if env.DryRun {
		return nil
	}
	return env.Store.DeleteAudio(j.Bundle)
}
