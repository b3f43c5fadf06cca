package jobs

import (
	"github.com/kelno/audio-journal-transcriber/internal/bundle"
	"github.com/kelno/audio-journal-transcriber/internal/fileutil"
)

// BundleJobs is the ordered pending work for one bundle.
type BundleJobs struct {
	Bundle *bundle.Bundle
	Jobs   []Job
}

// Resolve computes the ordered job list for one bundle. It reads bundle
// state and settings but mutates nothing, so calling it twice on unchanged
// state yields the same list.
//
// Audio removal and transcription are mutually exclusive within one pass:
// once a bundle qualifies for audio deletion, a missing transcript stays
// missing. That mirrors longstanding behavior and is pinned by tests.
func Resolve(store *bundle.Store, b *bundle.Bundle, settings Settings) []Job {
	var list []Job

	if b.HasAudio() {
		isNewAudio := !fileutil.IsWithin(store.Dir(), b.SourceAudio)
		if isNewAudio {
			list = append(list, CreateBundleJob{Bundle: b})
		}

		if !isNewAudio && store.NeedsAudioRemoval(b, settings.RetentionDays) {
			list = append(list, DeleteAudioFileJob{Bundle: b})
		} else if !b.HasTranscript() {
			list = append(list, TranscriptionJob{Bundle: b})
		}
	}

	if settings.SummaryEnabled {
		transcriptAvailable := b.HasTranscript()
		for _, job := range list {
			if _, ok := job.(TranscriptionJob); ok {
				transcriptAvailable = true
			}
		}

		summaryAvailable := b.HasSummary()
		if !summaryAvailable && transcriptAvailable {
			list = append(list, SummaryJob{Bundle: b})
			summaryAvailable = true
		}

		// Naming derives from the summary, so it always comes last and
		// only when a summary exists or is scheduled above.
		if b.NeedsNaming() && summaryAvailable {
			list = append(list, BundleNameJob{Bundle: b})
		}
	}

	return list
}
