package mistakes

import (
	"strings"

	"timeback/internal/transcript"
)

// seq lays words out 0.3 s long with 0.1 s gaps.
func seq(text string) []transcript.Word {
	var out []transcript.Word
	t := 0.0
	for _, f := range strings.Fields(text) {
		out = append(out, transcript.Word{Text: f, Start: t, End: t + 0.3})
		t += 0.4
	}
	return out
}

// shiftFrom delays word i and everything after it by extra seconds.
func shiftFrom(words []transcript.Word, i int, extra float64) []transcript.Word {
	for k := i; k < len(words); k++ {
		words[k].Start += extra
		words[k].End += extra
	}
	return words
}
