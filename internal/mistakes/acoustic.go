package mistakes

import (
	"sort"

	"timeback/internal/segments"
	"timeback/internal/transcript"
)

const (
	minBurst                 = 0.1
	maxBurst                 = 0.9
	unmatchedBurstConfidence = 0.35
)

var burstTierConfidence = map[Tier]float64{
	Tier1: 0.95,
	Tier2: 0.80,
	Tier3: 0.65,
}

// DetectAcoustic looks for short sound bursts bounded by silence on both
// sides. A burst with no transcript word under it is reported as an
// untranscribed filler sound. A burst whose words are all fillers is reported
// with a tier-dependent confidence and widened to cover those words. A burst
// that overlaps any ordinary word is left alone.
func DetectAcoustic(words []transcript.Word, silences []segments.Interval, duration float64, table *FillerTable) []Mistake {
	if table == nil {
		return nil
	}
	sil := segments.Normalize(silences, duration)
	tokens := transcript.Tokens(words)

	var out []Mistake
	for k := 0; k+1 < len(sil); k++ {
		burst := segments.Interval{Start: sil[k].End, End: sil[k+1].Start}
		if d := burst.Duration(); d < minBurst || d > maxBurst {
			continue
		}

		first := sort.Search(len(words), func(i int) bool { return words[i].End > burst.Start })
		start, end := burst.Start, burst.End
		best := TierNone
		var texts []string
		overlapped, ordinary := false, false
		for i := first; i < len(words) && words[i].Start < burst.End; i++ {
			overlapped = true
			tier := table.Tier(tokens[i])
			if tier == TierNone {
				ordinary = true
				break
			}
			if best == TierNone || tier < best {
				best = tier
			}
			start = min(start, words[i].Start)
			end = max(end, words[i].End)
			texts = append(texts, words[i].Text)
		}

		switch {
		case !overlapped:
			out = append(out, Mistake{
				Kind:       KindFillerSound,
				Start:      burst.Start,
				End:        burst.End,
				Reason:     "filler sound not in transcript",
				Confidence: unmatchedBurstConfidence,
				Sources:    []Source{SourceAcoustic},
			})
		case !ordinary:
			out = append(out, Mistake{
				Kind:       KindFillerWord,
				Start:      start,
				End:        end,
				Text:       joinText(texts),
				Reason:     "isolated burst matches a filler word",
				Confidence: burstTierConfidence[best],
				Sources:    []Source{SourceAcoustic},
			})
		}
	}
	return out
}
