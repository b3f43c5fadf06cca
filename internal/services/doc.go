// Package services defines the shared error taxonomy used by the bundle
// store, the job runner, and the external service clients.
//
// Errors are tagged with sentinel markers so callers can classify failures
// with errors.Is without inspecting message strings: a too-short recording
// is handled differently from a failed AI call, which is handled differently
// from a violated job precondition.
package services
