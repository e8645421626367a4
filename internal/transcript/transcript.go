package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"timeback/internal/services"
)

// Word is one transcribed word with timing in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (w Word) Duration() float64 { return w.End - w.Start }

var folder = cases.Fold()

// Normalize returns the comparison form of a token: case folded, diacritics
// removed, punctuation trimmed. Apostrophes inside a word are kept so "don't"
// and "dont" stay distinct.
func Normalize(token string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, token)
	if err != nil {
		stripped = token
	}
	stripped = folder.String(stripped)
	stripped = strings.ReplaceAll(stripped, "’", "'")
	return strings.TrimFunc(stripped, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
}

// Tokens returns the normalized token for every word, index aligned.
func Tokens(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Normalize(w.Text)
	}
	return out
}

// Text joins the raw word texts with single spaces.
func Text(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if text := strings.TrimSpace(w.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Split breaks cleaned text into normalized tokens, dropping any that
// normalize to nothing.
func Split(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := Normalize(f); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Sanitize drops words with no text or unusable timing, orders by start and
// pulls each end back so words never overlap. The input is not modified.
func Sanitize(words []Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" || !finite(w.Start) || !finite(w.End) || w.Start < 0 || w.End <= w.Start {
			continue
		}
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b Word) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	for i := 0; i+1 < len(out); i++ {
		if out[i].End > out[i+1].Start {
			out[i].End = max(out[i+1].Start, out[i].Start)
		}
	}
	return slices.DeleteFunc(out, func(w Word) bool { return w.End <= w.Start })
}

// Gap returns the pause before word i and after word i. The edges of the
// transcript report no pause.
func Gap(words []Word, i int) (before, after float64) {
	if i > 0 {
		before = words[i].Start - words[i-1].End
	}
	if i+1 < len(words) {
		after = words[i+1].Start - words[i].End
	}
	return before, after
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// rawWord accepts both the WhisperX "word" key and a plain "text" key.
type rawWord struct {
	Word  string   `json:"word"`
	Text  string   `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type whisperxPayload struct {
	Segments []struct {
		Words []rawWord `json:"words"`
	} `json:"segments"`
	WordSegments []rawWord `json:"word_segments"`
}

// Parse decodes WhisperX JSON (segments[].words[]) or a plain array of words.
// WhisperX leaves numerals without alignment; those words are dropped.
func Parse(data []byte) ([]Word, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var raws []rawWord
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "parse", "invalid word list", err)
		}
	} else {
		var payload whisperxPayload
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "parse", "invalid whisperx json", err)
		}
		for _, seg := range payload.Segments {
			raws = append(raws, seg.Words...)
		}
		if len(raws) == 0 {
			raws = payload.WordSegments
		}
	}

	words := make([]Word, 0, len(raws))
	for _, r := range raws {
		if r.Start == nil || r.End == nil {
			continue
		}
		text := r.Text
		if text == "" {
			text = r.Word
		}
		words = append(words, Word{Text: text, Start: *r.Start, End: *r.End})
	}
	return Sanitize(words), nil
}

// LoadFile reads and parses a transcript file.
func LoadFile(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "read", fmt.Sprintf("read %s", path), err)
	}
	return Parse(data)
}
