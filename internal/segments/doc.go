// Package segments turns intervals to remove into intervals to keep.
//
// Synthesize is pure and synchronous: it sorts and unions the removals, takes
// the complement over [0, duration], trims kept spans inward at cut
// boundaries, drops spans that are too short, merges spans separated by tiny
// gaps, pads each span outward (asymmetrically), and re-merges. Output is
// always sorted ascending and non-overlapping. With nothing to remove the
// result is exactly one segment covering the whole track.
package segments
