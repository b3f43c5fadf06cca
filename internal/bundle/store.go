package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kelno/audio-journal-transcriber/internal/fileutil"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
	"github.com/kelno/audio-journal-transcriber/internal/services"
)

// AudioProber measures the duration of an audio file.
type AudioProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Store manages bundle directories under a single root. All bundle disk
// mutations go through the store.
type Store struct {
	dir    string
	prober AudioProber
	logger *slog.Logger
	clock  func() time.Time
}

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithClock overrides the store's time source.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates a store rooted at dir. The directory is created on first
// mutation rather than here.
func NewStore(dir string, prober AudioProber, logger *slog.Logger, opts ...StoreOption) *Store {
	store := &Store{
		dir:    dir,
		prober: prober,
		logger: logging.WithComponent(logger, "bundle-store"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Dir returns the store root directory.
func (s *Store) Dir() string { return s.dir }

// LoadFromDirectory reads one bundle directory back into memory. The metadata
// file is mandatory; a directory holding more than one audio file is
// rejected because the bundle could not tell which recording it owns.
func (s *Store) LoadFromDirectory(dir string) (*Bundle, error) {
	meta, err := readMetadataFile(filepath.Join(dir, MetadataFilename))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "bundle-store", "load",
			fmt.Sprintf("read metadata for %s", filepath.Base(dir)), err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read bundle directory: %w", err)
	}

	b := &Bundle{
		Name:     filepath.Base(dir),
		Metadata: meta,
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsAudioFile(entry.Name()) {
			continue
		}
		if b.SourceAudio != "" {
			return nil, services.Wrap(services.ErrValidation, "bundle-store", "load",
				fmt.Sprintf("bundle %s contains more than one audio file", b.Name), nil)
		}
		b.SourceAudio = filepath.Join(dir, entry.Name())
	}

	if text, err := readOptionalFile(filepath.Join(dir, TranscriptFilename)); err != nil {
		return nil, err
	} else {
		b.Transcript = text
	}
	if text, err := readOptionalFile(filepath.Join(dir, SummaryFilename)); err != nil {
		return nil, err
	} else {
		b.Summary = text
	}
	return b, nil
}

func readOptionalFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

// CreateFromAudioFile builds an in-memory bundle for an incoming recording.
// The audio stays in place until AdoptAudio moves it into the store. Files
// shorter than minLength seconds are rejected with ErrTooShort.
func (s *Store) CreateFromAudioFile(ctx context.Context, path string, minLength float64) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat audio file: %w", err)
	}

	seconds, err := s.prober.Duration(ctx, path)
	if err != nil {
		return nil, err
	}
	if minLength > 0 && seconds < minLength {
		return nil, services.Wrap(services.ErrTooShort, "bundle-store", "create",
			fmt.Sprintf("%s is %.1fs, below the %.1fs minimum", filepath.Base(path), seconds, minLength), nil)
	}

	return &Bundle{
		Name: NameForAudioFile(path, info.ModTime()),
		Metadata: Metadata{
			OriginalAudioFilename: filepath.Base(path),
			AudioLengthSeconds:    seconds,
		},
		SourceAudio: path,
	}, nil
}

// GatherPendingAudio walks inputDir recursively for recognized audio files
// and builds a fresh bundle for each. Files below the minimum length are
// returned separately so the caller can apply its removal policy; files that
// cannot be probed are logged and skipped. A missing input directory is a
// configuration error, not an empty scan.
func (s *Store) GatherPendingAudio(ctx context.Context, inputDir string, minLength float64) ([]*Bundle, []string, error) {
	if _, err := os.Stat(inputDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, services.Wrap(services.ErrConfiguration, "bundle-store", "gather",
			fmt.Sprintf("input directory %s does not exist", inputDir), err)
	}

	var (
		bundles  []*Bundle
		tooShort []string
	)
	err := filepath.WalkDir(inputDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			// The store may nest under the input tree; never re-import
			// audio already adopted by a bundle.
			if fileutil.IsWithin(s.dir, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsAudioFile(entry.Name()) {
			return nil
		}
		b, err := s.CreateFromAudioFile(ctx, path, minLength)
		if errors.Is(err, services.ErrTooShort) {
			s.logger.Info("skipping short recording", logging.String("file", entry.Name()))
			tooShort = append(tooShort, path)
			return nil
		}
		if err != nil {
			// One unreadable recording must not stall the rest of the scan.
			s.logger.Warn("skipping unreadable recording",
				logging.String("file", entry.Name()),
				logging.Error(err))
			return nil
		}
		bundles = append(bundles, b)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan input directory: %w", err)
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles, tooShort, nil
}

// GatherExisting loads every bundle already present in the store. Directories
// that fail to load are logged and skipped so one corrupt bundle cannot stall
// the rest.
func (s *Store) GatherExisting() ([]*Bundle, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}

	var bundles []*Bundle
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b, err := s.LoadFromDirectory(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unloadable bundle",
				logging.String("directory", entry.Name()),
				logging.Error(err))
			continue
		}
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles, nil
}

// SaveMetadata persists the bundle's metadata file, creating the bundle
// directory if needed.
func (s *Store) SaveMetadata(b *Bundle) error {
	dir := b.Dir(s.dir)
	if err := fileutil.EnsureDir(dir); err != nil {
		return err
	}
	data, err := encodeMetadata(b.Metadata)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(filepath.Join(dir, MetadataFilename), data)
}

// AdoptAudio moves the bundle's audio file from its current location into the
// bundle directory and persists metadata. Adoption is what turns a fresh
// in-memory bundle into a durable one.
func (s *Store) AdoptAudio(b *Bundle) error {
	if !b.HasAudio() {
		return services.Wrap(services.ErrJobPrecondition, "bundle-store", "adopt",
			fmt.Sprintf("bundle %s has no audio to adopt", b.Name), nil)
	}
	target := filepath.Join(b.Dir(s.dir), filepath.Base(b.SourceAudio))
	if b.SourceAudio == target {
		return nil
	}
	if err := s.SaveMetadata(b); err != nil {
		return err
	}
	if err := fileutil.MoveFile(b.SourceAudio, target); err != nil {
		return fmt.Errorf("adopt audio: %w", err)
	}
	b.SourceAudio = target
	s.logger.Info("adopted recording",
		logging.String("bundle", b.Name),
		logging.String("audio", filepath.Base(target)))
	return nil
}

// SetTranscript records the transcript and the model that produced it.
// Metadata is persisted before the transcript file so a crash between the two
// writes never leaves an output file unaccounted for.
func (s *Store) SetTranscript(b *Bundle, text string, model string) error {
	b.Metadata.TranscriptModelUsed = model
	if err := s.SaveMetadata(b); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(b.TranscriptPath(s.dir), []byte(text)); err != nil {
		return err
	}
	b.Transcript = text
	return nil
}

// SetSummary records the summary and the model that produced it, with the
// same metadata-first ordering as SetTranscript.
func (s *Store) SetSummary(b *Bundle, text string, model string) error {
	b.Metadata.SummaryModelUsed = model
	if err := s.SaveMetadata(b); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(b.SummaryPath(s.dir), []byte(text)); err != nil {
		return err
	}
	b.Summary = text
	return nil
}

// Rename gives the bundle a descriptive directory name while preserving its
// date prefix, and marks name generation complete.
func (s *Store) Rename(b *Bundle, suffix string) error {
	suffix = SanitizeNameSuffix(suffix)
	if suffix == "" {
		return services.Wrap(services.ErrValidation, "bundle-store", "rename",
			fmt.Sprintf("empty name suffix for bundle %s", b.Name), nil)
	}
	date, ok := b.DatePrefix()
	if !ok {
		return services.Wrap(services.ErrValidation, "bundle-store", "rename",
			fmt.Sprintf("bundle %s has no date prefix", b.Name), nil)
	}

	newName := date.Format(datePrefixLayout) + " " + suffix
	oldDir := b.Dir(s.dir)
	if _, err := os.Stat(oldDir); err != nil {
		return fmt.Errorf("rename bundle: %w", err)
	}

	if newName != b.Name {
		newDir := filepath.Join(s.dir, newName)
		if _, err := os.Stat(newDir); err == nil {
			return services.Wrap(services.ErrValidation, "bundle-store", "rename",
				fmt.Sprintf("target %s already exists", newName), nil)
		}
		if err := os.Rename(oldDir, newDir); err != nil {
			return fmt.Errorf("rename bundle: %w", err)
		}
		oldName := b.Name
		b.Name = newName
		if b.HasAudio() && strings.HasPrefix(b.SourceAudio, oldDir+string(filepath.Separator)) {
			b.SourceAudio = filepath.Join(newDir, filepath.Base(b.SourceAudio))
		}
		s.logger.Info("renamed bundle",
			logging.String("from", oldName),
			logging.String("to", newName))
	}

	b.Metadata.BundleNameGenerated = true
	return s.SaveMetadata(b)
}

// NeedsAudioRemoval reports whether the bundle's audio has aged past the
// retention window. Both the bundle's date prefix and the audio file's
// modification time must agree that the recording is old enough; a recently
// copied file is not reaped just because its name says it is old.
func (s *Store) NeedsAudioRemoval(b *Bundle, retentionDays int) bool {
	if retentionDays <= 0 || b.Metadata.KeepForever || !b.HasAudio() {
		return false
	}
	date, ok := b.DatePrefix()
	if !ok {
		return false
	}
	info, err := os.Stat(b.SourceAudio)
	if err != nil {
		return false
	}

	now := s.clock()
	sinceDate := now.Sub(date)
	sinceModified := now.Sub(info.ModTime())
	age := sinceDate
	if sinceModified < age {
		age = sinceModified
	}
	return age > time.Duration(retentionDays)*24*time.Hour
}

// DeleteAudio removes the bundle's audio file. The metadata keeps the
// original filename and duration so the bundle still describes what it held.
func (s *Store) DeleteAudio(b *Bundle) error {
	if !b.HasAudio() {
		return nil
	}
	if err := os.Remove(b.SourceAudio); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete audio: %w", err)
	}
	s.logger.Info("deleted expired recording",
		logging.String("bundle", b.Name),
		logging.String("audio", filepath.Base(b.SourceAudio)))
	b.SourceAudio = ""
	return nil
}
