// Package whisperx produces word-timed transcripts for mistake detection.
//
// This package handles:
//   - Extracting the first audio stream as 16 kHz mono PCM WAV
//   - Checking the extracted WAV header before spending GPU time on it
//   - Invoking WhisperX through uvx with word alignment
//   - Loading the JSON output as transcript.Words
//
// Extraction failures are analysis errors (the input could not be decoded).
// WhisperX failures are service errors so callers can fall back to the
// silence-only path.
package whisperx
