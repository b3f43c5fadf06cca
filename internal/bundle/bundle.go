package bundle

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// MetadataFilename is the per-bundle metadata file. Its absence makes a
	// directory unloadable as a bundle.
	MetadataFilename = "_metadata.md"
	// TranscriptFilename holds the transcription output.
	TranscriptFilename = "transcript.md"
	// SummaryFilename holds the summarization output.
	SummaryFilename = "summary.md"

	datePrefixLayout = "2006-01-02"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
	".aac":  {},
	".mkv":  {},
	".mp4":  {},
}

// IsAudioFile reports whether filename has a recognized audio extension.
func IsAudioFile(filename string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Metadata is the persisted per-bundle record. It is the single source of
// truth for which AI models produced the transcript and summary.
type Metadata struct {
	OriginalAudioFilename string  `yaml:"original_audio_filename"`
	AudioLengthSeconds    float64 `yaml:"audio_length_seconds"`
	TranscriptModelUsed   string  `yaml:"transcript_model_used,omitempty"`
	SummaryModelUsed      string  `yaml:"summary_model_used,omitempty"`
	BundleNameGenerated   bool    `yaml:"bundle_name_generated"`
	KeepForever           bool    `yaml:"keep_forever"`
}

// Bundle is one recording's lifecycle state. A fresh bundle built from an
// incoming audio file exists only in memory until a CreateBundleJob moves the
// audio into the store; loaded bundles mirror their on-disk directory.
type Bundle struct {
	// Name doubles as the bundle directory name under the store.
	Name     string
	Metadata Metadata
	// SourceAudio is the absolute path of the audio file, empty once the
	// audio has been deleted by retention policy (or never existed).
	SourceAudio string
	// Transcript and Summary hold file contents; empty means absent.
	Transcript string
	Summary    string
}

// HasAudio reports whether the bundle currently owns an audio file.
func (b *Bundle) HasAudio() bool { return b.SourceAudio != "" }

// HasTranscript reports whether the transcription step is done.
func (b *Bundle) HasTranscript() bool { return b.Transcript != "" }

// HasSummary reports whether the summarization step is done.
func (b *Bundle) HasSummary() bool { return b.Summary != "" }

// NeedsNaming reports whether an AI-generated name is still pending.
func (b *Bundle) NeedsNaming() bool { return !b.Metadata.BundleNameGenerated }

// Dir returns the bundle directory under storeDir.
func (b *Bundle) Dir(storeDir string) string {
	return filepath.Join(storeDir, b.Name)
}

// TranscriptPath returns the transcript file path under storeDir.
func (b *Bundle) TranscriptPath(storeDir string) string {
	return filepath.Join(b.Dir(storeDir), TranscriptFilename)
}

// SummaryPath returns the summary file path under storeDir.
func (b *Bundle) SummaryPath(storeDir string) string {
	return filepath.Join(b.Dir(storeDir), SummaryFilename)
}

// AudioPathIn returns where the bundle's audio file lives (or would live)
// inside its directory under storeDir.
func (b *Bundle) AudioPathIn(storeDir string) string {
	name := b.Metadata.OriginalAudioFilename
	if name == "" && b.SourceAudio != "" {
		name = filepath.Base(b.SourceAudio)
	}
	return filepath.Join(b.Dir(storeDir), name)
}

// DatePrefix parses the leading YYYY-MM-DD of the bundle name. The prefix is
// assigned at creation and never changes afterwards.
func (b *Bundle) DatePrefix() (time.Time, bool) {
	if len(b.Name) < len(datePrefixLayout) {
		return time.Time{}, false
	}
	prefix, err := time.ParseInLocation(datePrefixLayout, b.Name[:len(datePrefixLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return prefix, true
}
