// Package silence estimates a per-recording silence threshold, detects
// silence intervals with ffmpeg silencedetect, and verifies the result with
// a second, more sensitive pass.
//
// The estimator is pure given its loudness samples (EstimateThreshold) and is
// deterministic for identical input. Detection and verification shell out to
// ffmpeg through an injectable runner.
package silence
