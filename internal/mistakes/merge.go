package mistakes

import (
	"slices"

	"timeback/internal/transcript"
)

const (
	// MaxConfidence caps corroborated confidence.
	MaxConfidence = 0.95
	// corroborationBoost is added when a second detector agrees.
	corroborationBoost = 0.10
)

// Merge reconciles detector outputs. It starts from base (the rule list) and
// folds in every candidate from others: a candidate overlapping an existing
// record raises that record to min(0.95, max(a, b) + 0.10) and widens it to
// the union of both spans; a candidate overlapping nothing is appended.
// A repeat that names the neighbouring copy of the same words as an existing
// repeat record confirms that record without widening it, so only one copy
// is cut. Records that overlap after widening are coalesced so no span is
// cut twice. Inputs are not modified; the result is sorted by start.
func Merge(base []Mistake, others ...[]Mistake) []Mistake {
	out := make([]Mistake, 0, len(base))
	for _, m := range base {
		out = append(out, cloneMistake(m))
	}
	for _, list := range others {
		for _, cand := range list {
			if idx := slices.IndexFunc(out, cand.Overlaps); idx >= 0 {
				out[idx] = corroborate(out[idx], cand)
				continue
			}
			if idx := slices.IndexFunc(out, func(m Mistake) bool { return sameRepeat(m, cand) }); idx >= 0 {
				out[idx] = confirm(out[idx], cand)
				continue
			}
			out = append(out, cloneMistake(cand))
		}
	}
	sortByStart(out)
	return coalesce(out)
}

// Boost returns the corroborated confidence for two agreeing records.
func Boost(a, b float64) float64 {
	return min(MaxConfidence, max(a, b)+corroborationBoost)
}

func corroborate(existing, cand Mistake) Mistake {
	existing.Confidence = Boost(existing.Confidence, cand.Confidence)
	existing.Start = min(existing.Start, cand.Start)
	existing.End = max(existing.End, cand.End)
	existing.Sources = addSources(existing.Sources, cand.Sources)
	if existing.Text == "" {
		existing.Text = cand.Text
	}
	return existing
}

// confirm boosts existing without taking cand's span.
func confirm(existing, cand Mistake) Mistake {
	existing.Confidence = Boost(existing.Confidence, cand.Confidence)
	existing.Sources = addSources(existing.Sources, cand.Sources)
	return existing
}

// sameRepeat reports whether a and b flag adjacent copies of the same
// repeated word or phrase.
func sameRepeat(a, b Mistake) bool {
	if !isRepeat(a.Kind) || !isRepeat(b.Kind) {
		return false
	}
	gap := max(a.Start, b.Start) - min(a.End, b.End)
	if gap < 0 || gap > maxRepeatGap {
		return false
	}
	ta, tb := transcript.Split(a.Text), transcript.Split(b.Text)
	return len(ta) > 0 && slices.Equal(ta, tb)
}

func isRepeat(k Kind) bool {
	return k == KindRepeatedWord || k == KindRepeatedPhrase
}

// coalesce joins sorted records that overlap after widening. The joined
// record keeps the earlier record's kind and the higher confidence; it is
// not boosted, since overlap here comes from widening, not agreement.
func coalesce(sorted []Mistake) []Mistake {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, m := range sorted[1:] {
		last := &out[len(out)-1]
		if !last.Overlaps(m) {
			out = append(out, m)
			continue
		}
		last.End = max(last.End, m.End)
		last.Confidence = max(last.Confidence, m.Confidence)
		last.Sources = addSources(last.Sources, m.Sources)
		if m.Text != "" && last.Text != m.Text {
			last.Text = joinText([]string{last.Text, m.Text})
		}
	}
	return out
}

func addSources(dst, src []Source) []Source {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func cloneMistake(m Mistake) Mistake {
	m.Sources = slices.Clone(m.Sources)
	return m
}
