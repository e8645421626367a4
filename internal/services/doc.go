// Package services defines shared utilities consumed by the analysis stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified as retryable or fatal without string matching.
//   - UserMessage, which turns a classified failure into advice an end user
//     can act on.
//
// Subpackages hold the clients for the transcription and cleanup services.
package services
