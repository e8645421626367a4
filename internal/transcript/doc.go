// Package transcript holds the word-level transcript model shared by the
// mistake detectors.
//
// Words come from WhisperX JSON output or a plain JSON word list. Tokens are
// compared after Normalize, which folds case, strips diacritics and
// punctuation, so "Um," and "um" match when diffing a cleaned transcript.
package transcript
