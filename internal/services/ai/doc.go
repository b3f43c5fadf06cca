// Package ai implements the client for the OpenAI-compatible endpoints the
// transcriber delegates to: audio transcription (multipart upload, with an
// optional streaming mode) and chat completions for summaries and short
// bundle names.
//
// The client performs no retries of its own; failed calls surface to the job
// runner and are re-attempted by the daemon's backoff loop on a later pass.
package ai
