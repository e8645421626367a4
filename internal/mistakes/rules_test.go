package mistakes

import "testing"

func TestDetectRules(t *testing.T) {
	en := NewFillerTable("en", nil, nil)
	tests := []struct {
		name       string
		words      func() []Mistake
		wantKind   Kind
		wantText   string
		wantConf   float64
		wantNumber int
	}{
		{"tier 1 filler", func() []Mistake { return DetectRules(seq("um I went to the store"), en) }, KindFillerWord, "um", tier1Confidence, 1},
		{"repeated word flags second copy", func() []Mistake { return DetectRules(seq("the the store"), en) }, KindRepeatedWord, "the", repeatedWordConfidence, 1},
		{"stutter fragment", func() []Mistake { return DetectRules(seq("b- because we"), en) }, KindStutter, "b-", stutterConfidence, 1},
		{"repeated phrase", func() []Mistake { return DetectRules(seq("I went I went to the store"), en) }, KindRepeatedPhrase, "I went", repeatedPhraseConfidence, 1},
		{"filler phrase", func() []Mistake { return DetectRules(seq("you know it works"), en) }, KindFillerWord, "you know", fillerPhraseConfidence, 1},
		{"tier 2 with pause", func() []Mistake { return DetectRules(shiftFrom(seq("and like we went"), 1, 0.3), en) }, KindFillerWord, "like", tier2Confidence, 1},
		{"tier 3 with long pause", func() []Mistake { return DetectRules(shiftFrom(seq("it just works"), 2, 0.6), en) }, KindFillerWord, "just", tier3Confidence, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.words()
			if len(got) != tc.wantNumber {
				t.Fatalf("expected %d mistake(s), got %+v", tc.wantNumber, got)
			}
			m := got[0]
			if m.Kind != tc.wantKind || m.Text != tc.wantText || m.Confidence != tc.wantConf {
				t.Fatalf("unexpected mistake %+v", m)
			}
			if len(m.Sources) != 1 || m.Sources[0] != SourceRules {
				t.Fatalf("unexpected sources %v", m.Sources)
			}
		})
	}
}

func TestDetectRulesLeavesMeaningfulSpeech(t *testing.T) {
	en := NewFillerTable("en", nil, nil)
	cases := map[string]func() int{
		"tier 2 without pause":  func() int { return len(DetectRules(seq("and like we went"), en)) },
		"like as a verb":        func() int { return len(DetectRules(shiftFrom(seq("I like this"), 1, 0.4), en)) },
		"legit double word":     func() int { return len(DetectRules(seq("I had had enough"), en)) },
		"short real word":       func() int { return len(DetectRules(seq("go to tomorrow"), en)) },
		"skip-listed phrase":    func() int { return len(DetectRules(seq("I think I think so"), en)) },
		"far apart repeat":      func() int { return len(DetectRules(shiftFrom(seq("stop stop"), 1, 1.5), en)) },
		"empty transcript":      func() int { return len(DetectRules(nil, en)) },
	}
	for name, count := range cases {
		if n := count(); n != 0 {
			t.Errorf("%s: expected no mistakes, got %d", name, n)
		}
	}
}

func TestDetectRulesSpanTimes(t *testing.T) {
	words := seq("I went I went to the store")
	got := DetectRules(words, NewFillerTable("en", nil, nil))
	if got[0].Start != words[2].Start || got[0].End != words[3].End {
		t.Fatalf("expected span of second copy, got %+v", got[0])
	}
}

func TestDetectRulesRepeatRunKeepsFirstCopy(t *testing.T) {
	en := NewFillerTable("en", nil, nil)
	words := seq("the the the store")
	got := DetectRules(words, en)
	if len(got) != 2 {
		t.Fatalf("expected two repeats flagged, got %+v", got)
	}
	if got[0].Start != words[1].Start || got[1].Start != words[2].Start {
		t.Fatalf("expected the later copies flagged, got %+v", got)
	}

	words = seq("I went I went I went home")
	got = DetectRules(words, en)
	if len(got) != 2 || got[0].Start != words[2].Start || got[1].End != words[5].End {
		t.Fatalf("expected every copy after the first flagged, got %+v", got)
	}
}

func TestDetectRulesExtraPhrase(t *testing.T) {
	table := NewFillerTable("en", nil, []string{"at the end of the day"})
	got := DetectRules(seq("at the end of the day we shipped"), table)
	if len(got) != 1 || got[0].Text != "at the end of the day" {
		t.Fatalf("expected extra phrase to be flagged, got %+v", got)
	}
}
