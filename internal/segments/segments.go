package segments

import (
	"math"
	"slices"
)

// Interval is a span of media time in seconds. Silences and confident
// mistakes are both expressed as Intervals to remove.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (i Interval) Duration() float64 { return i.End - i.Start }

// KeepSegment is a span that survives cutting.
type KeepSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (k KeepSegment) Duration() float64 { return k.End - k.Start }

// Options shapes the kept spans. All values are seconds.
type Options struct {
	// TrimPadding is removed from each kept edge that borders a cut.
	TrimPadding float64
	// MinSegment drops kept spans shorter than this after trimming.
	MinSegment float64
	// MergeGap joins kept spans whose gap is smaller than this.
	MergeGap float64
	// PadBefore and PadAfter expand kept spans outward. Speech trails off
	// more than it starts, so PadAfter is usually the larger one.
	PadBefore float64
	PadAfter  float64
}

const (
	silenceMinSegment  = 0.15
	silenceMergeGap    = 0.2
	silencePadBefore   = 0.05
	silencePadAfter    = 0.10
	mistakeTrimPadding = 0.015
	mistakeMinSegment  = 0.05
	mistakeMergeGap    = 0.05
	mistakePadAfter    = 0.02
	durationEpsilon    = 1e-9
)

// DefaultSilenceOptions returns the shaping used for silence cuts.
func DefaultSilenceOptions() Options {
	return Options{
		MinSegment: silenceMinSegment,
		MergeGap:   silenceMergeGap,
		PadBefore:  silencePadBefore,
		PadAfter:   silencePadAfter,
	}
}

// DefaultMistakeOptions returns the shaping used for mistake cuts: a 15 ms
// inward trim and almost no outward padding so the mistake itself stays out.
func DefaultMistakeOptions() Options {
	return Options{
		TrimPadding: mistakeTrimPadding,
		MinSegment:  mistakeMinSegment,
		MergeGap:    mistakeMergeGap,
		PadAfter:    mistakePadAfter,
	}
}

// Synthesize converts remove intervals into keep segments covering everything
// else in [0, duration]. It returns nil when duration is not positive, and may
// return an empty slice when every kept span was filtered out; callers must
// reject that before invoking an encoder.
func Synthesize(remove []Interval, duration float64, opts Options) []KeepSegment {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	removals := Normalize(remove, duration)
	if len(removals) == 0 {
		return []KeepSegment{{Start: 0, End: duration}}
	}

	kept := complement(removals, duration)
	kept = trimInward(kept, duration, opts.TrimPadding)
	kept = dropShort(kept, opts.MinSegment)
	kept = mergeClose(kept, opts.MergeGap)
	kept = padOutward(kept, duration, opts.PadBefore, opts.PadAfter)
	return mergeClose(kept, 0)
}

// Normalize clamps intervals to [0, duration], discards empty ones, sorts by
// start, and unions overlapping or touching intervals.
func Normalize(in []Interval, duration float64) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		start := clamp(iv.Start, 0, duration)
		end := clamp(iv.End, 0, duration)
		if end-start <= durationEpsilon {
			continue
		}
		out = append(out, Interval{Start: start, End: end})
	}
	slices.SortFunc(out, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	merged := out[:0]
	for _, iv := range out {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Removed returns the complement of keep over [0, duration], i.e. what a
// render of keep actually cuts.
func Removed(keep []KeepSegment, duration float64) []Interval {
	var out []Interval
	cursor := 0.0
	for _, seg := range keep {
		if seg.Start > cursor {
			out = append(out, Interval{Start: cursor, End: seg.Start})
		}
		cursor = math.Max(cursor, seg.End)
	}
	if cursor < duration {
		out = append(out, Interval{Start: cursor, End: duration})
	}
	return out
}

// TotalDuration sums the length of keep.
func TotalDuration(keep []KeepSegment) float64 {
	var total float64
	for _, seg := range keep {
		total += seg.Duration()
	}
	return total
}

func complement(removals []Interval, duration float64) []KeepSegment {
	kept := make([]KeepSegment, 0, len(removals)+1)
	cursor := 0.0
	for _, r := range removals {
		if r.Start > cursor {
			kept = append(kept, KeepSegment{Start: cursor, End: r.Start})
		}
		cursor = r.End
	}
	if cursor < duration {
		kept = append(kept, KeepSegment{Start: cursor, End: duration})
	}
	return kept
}

// trimInward shaves pad from edges that border a cut. Edges at 0 and at
// duration are track boundaries, not cuts, and stay put.
func trimInward(kept []KeepSegment, duration, pad float64) []KeepSegment {
	if pad <= 0 {
		return kept
	}
	out := kept[:0]
	for _, seg := range kept {
		if seg.Start > 0 {
			seg.Start += pad
		}
		if seg.End < duration {
			seg.End -= pad
		}
		if seg.End-seg.Start > durationEpsilon {
			out = append(out, seg)
		}
	}
	return out
}

func dropShort(kept []KeepSegment, minSegment float64) []KeepSegment {
	out := kept[:0]
	for _, seg := range kept {
		if seg.Duration() <= durationEpsilon || seg.Duration() < minSegment {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// mergeClose joins neighbours whose gap is below gap. With gap 0 it only
// joins spans that overlap or touch.
func mergeClose(kept []KeepSegment, gap float64) []KeepSegment {
	out := kept[:0]
	for _, seg := range kept {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if seg.Start-prev.End < gap || seg.Start <= prev.End {
				prev.End = math.Max(prev.End, seg.End)
				continue
			}
		}
		out = append(out, seg)
	}
	return out
}

func padOutward(kept []KeepSegment, duration, before, after float64) []KeepSegment {
	if before <= 0 && after <= 0 {
		return kept
	}
	for i := range kept {
		kept[i].Start = clamp(kept[i].Start-math.Max(before, 0), 0, duration)
		kept[i].End = clamp(kept[i].End+math.Max(after, 0), 0, duration)
	}
	return kept
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
