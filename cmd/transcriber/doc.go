// Command transcriber turns a folder of incoming audio recordings into
// durably tracked bundles of audio, transcript, summary, and metadata.
//
// Run `transcriber run` for a one-shot pass over everything pending, or
// `transcriber daemon` to keep watching the input tree and processing as
// recordings arrive.
package main
