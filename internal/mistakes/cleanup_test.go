package mistakes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"timeback/internal/services"
	"timeback/internal/transcript"
)

type stubCleaner struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	seen      []string
}

func (s *stubCleaner) Clean(_ context.Context, instruction, text string) (string, error) {
	s.mu.Lock()
	s.seen = append(s.seen, instruction)
	s.mu.Unlock()
	if err, ok := s.errs[text]; ok {
		return "", err
	}
	if out, ok := s.responses[text]; ok {
		return out, nil
	}
	return text, nil
}

func TestDiffRemovedFindsDroppedIndices(t *testing.T) {
	original := []string{"um", "i", "went", "to", "the", "the", "store"}
	removed, matched := DiffRemoved(original, transcript.Split("I went to the store"))
	var got []int
	for i, r := range removed {
		if r {
			got = append(got, i)
		}
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 5 {
		t.Fatalf("expected removed indices [0 5], got %v", got)
	}
	if matched != 1 {
		t.Fatalf("expected full match, got %v", matched)
	}
}

func TestDiffRemovedDegradesOnRewrite(t *testing.T) {
	removed, matched := DiffRemoved([]string{"a", "b"}, []string{"x", "y", "z"})
	if matched != 0 {
		t.Fatalf("expected no match, got %v", matched)
	}
	if !removed[0] || !removed[1] {
		t.Fatalf("unmatched originals should read as removed, got %v", removed)
	}
	if r, m := DiffRemoved(nil, nil); len(r) != 0 || m != 0 {
		t.Fatalf("expected empty diff, got %v %v", r, m)
	}
}

func TestCleanupDetectorExample(t *testing.T) {
	words := seq("um I went to the the store")
	cleaner := &stubCleaner{responses: map[string]string{
		"um I went to the the store": "I went to the store.",
	}}
	d := NewCleanupDetector(cleaner, AllCategories(), "en", nil)
	got, err := d.Detect(context.Background(), words, NewFillerTable("en", nil, nil))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two mistakes, got %+v", got)
	}
	if got[0].Kind != KindFillerWord || got[0].Start != words[0].Start || got[0].Confidence != 0.85 {
		t.Fatalf("unexpected first mistake %+v", got[0])
	}
	if got[1].Kind != KindRepeatedWord || got[1].Start != words[5].Start || got[1].End != words[5].End || got[1].Confidence != 0.90 {
		t.Fatalf("unexpected second mistake %+v", got[1])
	}
	if !strings.Contains(cleaner.seen[0], "filler words") || !strings.Contains(cleaner.seen[0], "English") {
		t.Fatalf("unexpected instruction %q", cleaner.seen[0])
	}
}

func TestCleanupDetectorOverlapConsensus(t *testing.T) {
	words := seq("so we went um home today")
	table := NewFillerTable("en", nil, nil)

	disagree := &stubCleaner{responses: map[string]string{
		"so we went um": "so we went",
	}}
	got, err := NewCleanupDetector(disagree, AllCategories(), "en", nil, WithChunking(4, 1)).Detect(context.Background(), words, table)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("disagreeing chunks must keep the word, got %+v", got)
	}

	agree := &stubCleaner{responses: map[string]string{
		"so we went um": "so we went",
		"um home today": "home today",
	}}
	got, err = NewCleanupDetector(agree, AllCategories(), "en", nil, WithChunking(4, 1)).Detect(context.Background(), words, table)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(got) != 1 || got[0].Text != "um" {
		t.Fatalf("agreeing chunks should remove the word, got %+v", got)
	}
}

func TestCleanupDetectorFailures(t *testing.T) {
	words := seq("so we went um home today")
	table := NewFillerTable("en", nil, nil)
	boom := errors.New("upstream 503")

	partial := &stubCleaner{
		responses: map[string]string{"so we went um": "so we went"},
		errs:      map[string]error{"um home today": boom},
	}
	got, err := NewCleanupDetector(partial, AllCategories(), "en", nil, WithChunking(4, 1)).Detect(context.Background(), words, table)
	if err != nil {
		t.Fatalf("one failed chunk must not fail detection: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("failed chunk votes to keep its words, got %+v", got)
	}

	all := &stubCleaner{errs: map[string]error{"so we went um": boom, "um home today": boom}}
	_, err = NewCleanupDetector(all, AllCategories(), "en", nil, WithChunking(4, 1)).Detect(context.Background(), words, table)
	if !errors.Is(err, services.ErrService) {
		t.Fatalf("expected ErrService when every chunk fails, got %v", err)
	}
}

func TestCleanupDetectorRejectsRewrites(t *testing.T) {
	words := seq("um I went to the store")
	cleaner := &stubCleaner{responses: map[string]string{
		"um I went to the store": "Here is a nicer version of your text for you",
	}}
	got, err := NewCleanupDetector(cleaner, AllCategories(), "en", nil).Detect(context.Background(), words, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("rewritten output must yield nothing, got %+v %v", got, err)
	}

	truncated := &stubCleaner{responses: map[string]string{"um I went to the store": "store"}}
	got, err = NewCleanupDetector(truncated, AllCategories(), "en", nil).Detect(context.Background(), words, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("mass deletion must yield nothing, got %+v %v", got, err)
	}
}

func TestClassifyRemoval(t *testing.T) {
	table := NewFillerTable("en", nil, nil)
	tests := []struct {
		name     string
		tokens   []string
		from, to int
		want     Kind
	}{
		{"filler run", []string{"um", "uh", "we", "go"}, 0, 1, KindFillerWord},
		{"filler phrase", []string{"you", "know", "we", "go"}, 0, 1, KindFillerWord},
		{"repeated phrase", []string{"to", "the", "to", "the", "store"}, 0, 1, KindRepeatedPhrase},
		{"self correction", []string{"i", "want", "the", "red", "sorry", "the", "blue", "one"}, 2, 4, KindSelfCorrection},
		{"false start", []string{"we", "should", "we", "need", "to", "go"}, 0, 1, KindFalseStart},
	}
	for _, tc := range tests {
		if got, _ := classifyRemoval(tc.tokens, tc.from, tc.to, table); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestConsensus(t *testing.T) {
	votes := []chunkVote{
		{span: transcript.Span{Start: 0, End: 4}, removed: []bool{false, true, false, true}, ok: true},
		{span: transcript.Span{Start: 3, End: 6}, removed: []bool{false, false, true}, ok: true},
		{span: transcript.Span{Start: 5, End: 8}, ok: false},
	}
	got := consensus(8, votes)
	want := []bool{false, true, false, false, false, false, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("consensus = %v, want %v", got, want)
		}
	}
}

func TestCleanupDetectorDisabledCategories(t *testing.T) {
	cleaner := &stubCleaner{}
	got, err := NewCleanupDetector(cleaner, Categories{}, "en", nil).Detect(context.Background(), seq("um hi"), nil)
	if err != nil || got != nil || len(cleaner.seen) != 0 {
		t.Fatalf("expected no calls with every category off, got %v %v %d", got, err, len(cleaner.seen))
	}
}
