// Package mistakes finds disfluencies in a word-timed transcript.
//
// Three detectors look at the same immutable word list:
//
//   - DetectRules: tiered filler words, repeats, stutters and phrases
//   - DetectAcoustic: short sound bursts between silences, checked against
//     the words that overlap them
//   - CleanupDetector: asks a cleanup model to drop disfluencies and recovers
//     the dropped words with a longest-common-subsequence diff
//
// Each returns its own slice. Merge reconciles them afterwards: overlapping
// records corroborate each other and are widened to their union, everything
// else is appended. Disagreement between cleanup chunks keeps the word.
package mistakes
