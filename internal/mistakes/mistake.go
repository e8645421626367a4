package mistakes

import (
	"slices"
	"strings"

	"timeback/internal/segments"
)

// Kind classifies a mistake.
type Kind string

const (
	KindFillerWord     Kind = "filler_word"
	KindFillerSound    Kind = "filler_sound"
	KindRepeatedWord   Kind = "repeated_word"
	KindStutter        Kind = "stutter"
	KindRepeatedPhrase Kind = "repeated_phrase"
	KindFalseStart     Kind = "false_start"
	KindSelfCorrection Kind = "self_correction"
)

// Source names the detector that produced a record.
type Source string

const (
	SourceRules    Source = "rules"
	SourceAcoustic Source = "acoustic"
	SourceCleanup  Source = "cleanup"
)

// Mistake is one span judged to be a speech mistake.
type Mistake struct {
	Kind       Kind     `json:"kind"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Reason     string   `json:"reason"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources"`
}

// Duration returns End - Start.
func (m Mistake) Duration() float64 { return m.End - m.Start }

// Overlaps reports whether two mistakes share any time.
func (m Mistake) Overlaps(o Mistake) bool {
	return m.Start < o.End && o.Start < m.End
}

// Categories toggles which mistake kinds are cut.
type Categories struct {
	FillerWords     bool `json:"filler_words"`
	RepeatedWords   bool `json:"repeated_words"`
	RepeatedPhrases bool `json:"repeated_phrases"`
	FalseStarts     bool `json:"false_starts"`
	SelfCorrections bool `json:"self_corrections"`
}

// AllCategories enables every category.
func AllCategories() Categories {
	return Categories{FillerWords: true, RepeatedWords: true, RepeatedPhrases: true, FalseStarts: true, SelfCorrections: true}
}

// Allows reports whether kind belongs to an enabled category. Stutters count
// as repeated words and unmatched filler sounds as filler words.
func (c Categories) Allows(kind Kind) bool {
	switch kind {
	case KindFillerWord, KindFillerSound:
		return c.FillerWords
	case KindRepeatedWord, KindStutter:
		return c.RepeatedWords
	case KindRepeatedPhrase:
		return c.RepeatedPhrases
	case KindFalseStart:
		return c.FalseStarts
	case KindSelfCorrection:
		return c.SelfCorrections
	default:
		return false
	}
}

// Names lists the enabled categories in a fixed order.
func (c Categories) Names() []string {
	var names []string
	if c.FillerWords {
		names = append(names, "filler words")
	}
	if c.RepeatedWords {
		names = append(names, "repeated words")
	}
	if c.RepeatedPhrases {
		names = append(names, "repeated phrases")
	}
	if c.FalseStarts {
		names = append(names, "false starts")
	}
	if c.SelfCorrections {
		names = append(names, "self-corrections")
	}
	return names
}

// Filter keeps mistakes whose category is enabled and whose confidence is at
// least threshold. The input is not modified.
func Filter(in []Mistake, cats Categories, threshold float64) []Mistake {
	out := make([]Mistake, 0, len(in))
	for _, m := range in {
		if cats.Allows(m.Kind) && m.Confidence >= threshold {
			out = append(out, m)
		}
	}
	return out
}

// Intervals converts mistakes into removal intervals.
func Intervals(in []Mistake) []segments.Interval {
	out := make([]segments.Interval, 0, len(in))
	for _, m := range in {
		out = append(out, segments.Interval{Start: m.Start, End: m.End})
	}
	return out
}

func sortByStart(in []Mistake) {
	slices.SortStableFunc(in, func(a, b Mistake) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		case a.End < b.End:
			return -1
		case a.End > b.End:
			return 1
		default:
			return 0
		}
	})
}

func joinText(parts []string) string {
	return strings.Join(parts, " ")
}
