// Package bundle models the durable unit of work: one recording's audio,
// transcript, summary, and metadata grouped in a single store subdirectory.
//
// The Store loads bundles from existing directories, creates fresh ones from
// incoming audio files, and owns every on-disk mutation (metadata writes,
// transcript/summary writes, directory renames, audio adoption and removal).
// Job code never touches bundle files directly; it goes through the Store so
// metadata and outputs stay consistent even across crashes.
//
// Bundle directory layout:
//
//	<store>/<YYYY-MM-DD>[ <suffix>]/
//	    _metadata.md      YAML frontmatter, the source of truth
//	    <original audio>  at most one recognized audio file
//	    transcript.md     plain text, present once transcribed
//	    summary.md        plain text, present once summarized
package bundle
