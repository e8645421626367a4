// Package pipeline exposes the two segment-decision entry points and the
// supervised encoder call.
//
// ComputeSilenceKeepSegments estimates a threshold, detects silence (with the
// dual-pass check) and synthesizes keep segments. ComputeMistakeKeepSegments
// runs the rule, acoustic and cleanup detectors concurrently, merges their
// findings, gates them by confidence and category, and synthesizes keep
// segments from what remains. Both reject an empty keep list with
// services.ErrEmptyResult so nothing downstream encodes an empty file.
package pipeline
