package mistakes

import (
	"slices"
	"strings"
	"unicode/utf8"

	"timeback/internal/transcript"
)

// Rule confidences.
const (
	tier1Confidence          = 0.85
	tier2Confidence          = 0.65
	tier3Confidence          = 0.50
	repeatedWordConfidence   = 0.90
	stutterConfidence        = 0.80
	fillerPhraseConfidence   = 0.55
	repeatedPhraseConfidence = 0.85
)

// Context thresholds, in seconds.
const (
	tier2Pause      = 0.3
	tier2ShortWord  = 0.15
	tier3Pause      = 0.5
	maxRepeatGap    = 1.0
	maxStutterGap   = 0.5
	maxPhraseRepeat = 4
)

// DetectRules runs the tiered filler, repeat, stutter and phrase rules over
// words. Each word is flagged at most once; for repeats the later
// occurrence is flagged, the same copy the cleanup diff drops.
func DetectRules(words []transcript.Word, table *FillerTable) []Mistake {
	if len(words) == 0 || table == nil {
		return nil
	}
	r := ruleScan{
		words:   words,
		tokens:  transcript.Tokens(words),
		flagged: make([]bool, len(words)),
		table:   table,
	}
	r.repeatedPhrases()
	r.fillerPhrases()
	r.singleWords()
	sortByStart(r.out)
	return r.out
}

type ruleScan struct {
	words   []transcript.Word
	tokens  []string
	flagged []bool
	table   *FillerTable
	out     []Mistake
}

func (r *ruleScan) free(from, to int) bool {
	for k := from; k <= to; k++ {
		if r.flagged[k] || r.tokens[k] == "" {
			return false
		}
	}
	return true
}

func (r *ruleScan) emit(kind Kind, from, to int, confidence float64, reason string) {
	texts := make([]string, 0, to-from+1)
	for k := from; k <= to; k++ {
		r.flagged[k] = true
		texts = append(texts, r.words[k].Text)
	}
	r.out = append(r.out, Mistake{
		Kind:       kind,
		Start:      r.words[from].Start,
		End:        r.words[to].End,
		Text:       joinText(texts),
		Reason:     reason,
		Confidence: confidence,
		Sources:    []Source{SourceRules},
	})
}

// repeatedPhrases flags the second copy of an n-word phrase said twice in a
// row, longest phrases first. In a run of copies every copy after the first
// is flagged.
func (r *ruleScan) repeatedPhrases() {
	for n := maxPhraseRepeat; n >= 2; n-- {
		for i := 0; i+2*n <= len(r.tokens); i++ {
			first, second := r.tokens[i:i+n], r.tokens[i+n:i+2*n]
			if !slices.Equal(first, second) || allSame(first) {
				continue
			}
			if !r.free(i+n, i+2*n-1) || r.table.SkipPhraseRepeat(first) {
				continue
			}
			if r.words[i+n].Start-r.words[i+n-1].End > maxRepeatGap {
				continue
			}
			r.emit(KindRepeatedPhrase, i+n, i+2*n-1, repeatedPhraseConfidence, "phrase repeated: "+strings.Join(first, " "))
		}
	}
}

func (r *ruleScan) fillerPhrases() {
	for _, phrase := range r.table.Phrases() {
		n := len(phrase)
		for i := 0; i+n <= len(r.tokens); i++ {
			if slices.Equal(r.tokens[i:i+n], phrase) && r.free(i, i+n-1) {
				r.emit(KindFillerWord, i, i+n-1, fillerPhraseConfidence, "filler phrase: "+strings.Join(phrase, " "))
				i += n - 1
			}
		}
	}
}

func (r *ruleScan) singleWords() {
	for i, tok := range r.tokens {
		if r.flagged[i] || tok == "" {
			continue
		}
		if i > 0 && r.tokens[i-1] == tok && r.words[i].Start-r.words[i-1].End <= maxRepeatGap && !r.table.SkipRepeat(tok) {
			r.emit(KindRepeatedWord, i, i, repeatedWordConfidence, "word repeated: "+tok)
			continue
		}
		if i+1 < len(r.tokens) && !r.flagged[i+1] {
			next := r.tokens[i+1]
			if r.words[i+1].Start-r.words[i].End <= maxStutterGap && r.stutter(i) {
				r.emit(KindStutter, i, i, stutterConfidence, "stutter before: "+next)
				continue
			}
		}

		before, after := transcript.Gap(r.words, i)
		switch r.table.Tier(tok) {
		case Tier1:
			r.emit(KindFillerWord, i, i, tier1Confidence, "tier 1 filler")
		case Tier2:
			if r.table.Excepted(r.tokens, i) {
				continue
			}
			if before > tier2Pause || after > tier2Pause || r.words[i].Duration() < tier2ShortWord {
				r.emit(KindFillerWord, i, i, tier2Confidence, "tier 2 filler set off by a pause")
			}
		case Tier3:
			if r.table.Excepted(r.tokens, i) {
				continue
			}
			if before > tier3Pause || after > tier3Pause {
				r.emit(KindFillerWord, i, i, tier3Confidence, "tier 3 filler set off by a long pause")
			}
		}
	}
}

// stutter reports whether token i is a cut-off fragment of token i+1: either
// transcribed with a trailing hyphen ("b- because") or a one- or two-letter
// prefix that is not itself a word.
func (r *ruleScan) stutter(i int) bool {
	tok, next := r.tokens[i], r.tokens[i+1]
	if len(tok) >= len(next) || !strings.HasPrefix(next, tok) {
		return false
	}
	raw := strings.TrimSpace(r.words[i].Text)
	if strings.HasSuffix(raw, "-") || strings.HasSuffix(raw, "—") || strings.HasSuffix(raw, "...") {
		return true
	}
	return utf8.RuneCountInString(tok) <= 2 && !r.table.ShortWord(tok) && !r.table.IsFiller(tok)
}

func allSame(tokens []string) bool {
	for _, t := range tokens[1:] {
		if t != tokens[0] {
			return false
		}
	}
	return true
}
