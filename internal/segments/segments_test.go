package segments

import (
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestSynthesizeNoRemovalsIsIdentity(t *testing.T) {
	for _, opts := range []Options{{}, DefaultSilenceOptions(), DefaultMistakeOptions(), {TrimPadding: 1, MinSegment: 100, MergeGap: 5, PadBefore: 2, PadAfter: 3}} {
		for _, remove := range [][]Interval{nil, {}, {{Start: 5, End: 5}}, {{Start: 70, End: 80}}} {
			got := Synthesize(remove, 60, opts)
			if len(got) != 1 || got[0].Start != 0 || got[0].End != 60 {
				t.Fatalf("opts %+v remove %v: expected [{0 60}], got %v", opts, remove, got)
			}
		}
	}
}

func TestSynthesizeCleanNarrationScenario(t *testing.T) {
	remove := []Interval{{Start: 10, End: 12}, {Start: 40, End: 41.5}}
	got := Synthesize(remove, 60, Options{PadBefore: 0.05, PadAfter: 0.05})
	want := []KeepSegment{{0, 10.05}, {11.95, 40.05}, {41.45, 60}}
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %v", len(want), got)
	}
	for i := range want {
		if !approxEqual(got[i].Start, want[i].Start) || !approxEqual(got[i].End, want[i].End) {
			t.Fatalf("segment %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestSynthesizeSortsAndUnionsInput(t *testing.T) {
	remove := []Interval{{Start: 30, End: 35}, {Start: 5, End: 8}, {Start: 7, End: 9}, {Start: -3, End: 1}}
	got := Synthesize(remove, 40, Options{})
	want := []KeepSegment{{1, 5}, {9, 30}, {35, 40}}
	if len(got) != len(want) {
		t.Fatalf("unexpected segments %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestSynthesizeTrimOnlyAtCuts(t *testing.T) {
	got := Synthesize([]Interval{{Start: 10, End: 11}}, 20, Options{TrimPadding: 0.015})
	if len(got) != 2 {
		t.Fatalf("unexpected segments %v", got)
	}
	if got[0].Start != 0 || !approxEqual(got[0].End, 9.985) {
		t.Fatalf("first segment should keep track start and trim cut edge: %+v", got[0])
	}
	if !approxEqual(got[1].Start, 11.015) || got[1].End != 20 {
		t.Fatalf("second segment should trim cut edge and keep track end: %+v", got[1])
	}
}

func TestSynthesizeDropsShortAndMergesCloseSpans(t *testing.T) {
	remove := []Interval{{Start: 2, End: 2.5}, {Start: 2.55, End: 3}, {Start: 3.05, End: 3.1}}
	got := Synthesize(remove, 10, Options{MinSegment: 0.1, MergeGap: 0.08})
	// [2.5,2.55] is dropped as short; [3,3.05] too; [0,2] and [3.1,10] stay apart.
	if len(got) != 2 || got[0] != (KeepSegment{0, 2}) || got[1] != (KeepSegment{3.1, 10}) {
		t.Fatalf("unexpected segments %v", got)
	}

	merged := Synthesize([]Interval{{Start: 4, End: 4.05}}, 10, Options{MergeGap: 0.1})
	if len(merged) != 1 || merged[0] != (KeepSegment{0, 10}) {
		t.Fatalf("expected tiny gap to be merged away, got %v", merged)
	}
}

func TestSynthesizePaddingRemergesOverlaps(t *testing.T) {
	got := Synthesize([]Interval{{Start: 5, End: 5.2}}, 10, Options{PadBefore: 0.1, PadAfter: 0.15})
	if len(got) != 1 || got[0] != (KeepSegment{0, 10}) {
		t.Fatalf("expected padded spans to re-merge, got %v", got)
	}
}

func TestSynthesizeEverythingRemoved(t *testing.T) {
	got := Synthesize([]Interval{{Start: 0, End: 60}}, 60, DefaultSilenceOptions())
	if len(got) != 0 {
		t.Fatalf("expected no segments, got %v", got)
	}
	if Synthesize(nil, 0, Options{}) != nil {
		t.Fatal("expected nil for zero duration")
	}
}

func TestSynthesizeCoverageInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		duration := 5 + rng.Float64()*120
		var remove []Interval
		for n := rng.Intn(12); n > 0; n-- {
			start := rng.Float64()*duration*1.1 - 1
			remove = append(remove, Interval{Start: start, End: start + rng.Float64()*4})
		}
		opts := Options{
			TrimPadding: rng.Float64() * 0.05,
			MinSegment:  rng.Float64() * 0.3,
			MergeGap:    rng.Float64() * 0.3,
			PadBefore:   rng.Float64() * 0.1,
			PadAfter:    rng.Float64() * 0.2,
		}
		keep := Synthesize(remove, duration, opts)
		for i, seg := range keep {
			if seg.End <= seg.Start {
				t.Fatalf("iter %d: degenerate segment %+v", iter, seg)
			}
			if seg.Start < 0 || seg.End > duration+tolerance {
				t.Fatalf("iter %d: segment out of bounds %+v (duration %v)", iter, seg, duration)
			}
			if i > 0 && seg.Start <= keep[i-1].End {
				t.Fatalf("iter %d: overlapping or unsorted segments %+v %+v", iter, keep[i-1], seg)
			}
		}
		removed := Removed(keep, duration)
		total := TotalDuration(keep)
		for _, r := range removed {
			total += r.Duration()
		}
		if math.Abs(total-duration) > 1e-6 {
			t.Fatalf("iter %d: keep+removed covers %v, want %v", iter, total, duration)
		}
	}
}

func TestNormalizeUnionsTouchingIntervals(t *testing.T) {
	got := Normalize([]Interval{{Start: 3, End: 4}, {Start: 1, End: 2}, {Start: 2, End: 3}}, 10)
	if len(got) != 1 || got[0] != (Interval{1, 4}) {
		t.Fatalf("unexpected normalized intervals %v", got)
	}
}
