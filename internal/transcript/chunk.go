package transcript

// Span is a half-open index range [Start, End) into a word list.
type Span struct {
	Start int
	End   int
}

// Len returns End - Start.
func (s Span) Len() int { return s.End - s.Start }

// Chunk splits n words into spans of at most size words, each overlapping
// the previous one by overlap words. A non-positive size yields one span.
func Chunk(n, size, overlap int) []Span {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size >= n {
		return []Span{{Start: 0, End: n}}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	step := size - overlap
	var spans []Span
	for start := 0; ; start += step {
		end := min(start+size, n)
		spans = append(spans, Span{Start: start, End: end})
		if end == n {
			break
		}
	}
	return spans
}
