// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; the helpers answer the two
// questions the pipeline asks of every input: how long is it, and does it
// carry video or only audio.
package ffprobe
