// Package ffmpeg holds the command runner used for short ffmpeg analysis
// passes (volumedetect, astats, silencedetect, audio extraction).
//
// Long encodes do not go through here; they run under the supervisor so they
// get timeouts, signal handling, and retries.
package ffmpeg
