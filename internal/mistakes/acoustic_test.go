package mistakes

import (
	"testing"

	"timeback/internal/segments"
	"timeback/internal/transcript"
)

func TestDetectAcoustic(t *testing.T) {
	silences := []segments.Interval{
		{Start: 0, End: 1},
		{Start: 1.5, End: 3},
		{Start: 3.2, End: 5},
		{Start: 5.5, End: 6.8},
		{Start: 8, End: 9},
	}
	words := []transcript.Word{
		{Text: "Um,", Start: 1.05, End: 1.55},
		{Text: "hello", Start: 4.9, End: 5.6},
		{Text: "everyone", Start: 6.9, End: 7.8},
	}
	got := DetectAcoustic(words, silences, 10, NewFillerTable("en", nil, nil))
	if len(got) != 2 {
		t.Fatalf("expected two bursts, got %+v", got)
	}

	filler := got[0]
	if filler.Kind != KindFillerWord || filler.Confidence != 0.95 || filler.Text != "Um," {
		t.Fatalf("unexpected filler burst %+v", filler)
	}
	if filler.Start != 1 || filler.End != 1.55 {
		t.Fatalf("expected union of burst and word, got [%v, %v]", filler.Start, filler.End)
	}

	sound := got[1]
	if sound.Kind != KindFillerSound || sound.Confidence != 0.35 || sound.Start != 3 || sound.End != 3.2 {
		t.Fatalf("unexpected untranscribed burst %+v", sound)
	}
	if sound.Reason != "filler sound not in transcript" {
		t.Fatalf("unexpected reason %q", sound.Reason)
	}
}

func TestDetectAcousticTierConfidence(t *testing.T) {
	silences := []segments.Interval{{Start: 0, End: 2}, {Start: 2.4, End: 4}}
	words := []transcript.Word{{Text: "so", Start: 2.05, End: 2.35}}
	got := DetectAcoustic(words, silences, 4, NewFillerTable("en", nil, nil))
	if len(got) != 1 || got[0].Confidence != 0.80 {
		t.Fatalf("expected tier 2 burst at 0.80, got %+v", got)
	}
}

func TestDetectAcousticNoSilences(t *testing.T) {
	if got := DetectAcoustic(seq("um hello"), nil, 5, NewFillerTable("en", nil, nil)); len(got) != 0 {
		t.Fatalf("expected nothing without silences, got %+v", got)
	}
}
