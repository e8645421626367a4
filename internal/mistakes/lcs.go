package mistakes

// DiffRemoved aligns cleaned against original with a longest common
// subsequence and marks the original tokens that have no partner. Ties go to
// the earliest original token, so for "the the store" vs "the store" the
// second "the" is the one removed. matched is the share of cleaned tokens
// that were aligned; a cleaner that rewrote the text scores low.
func DiffRemoved(original, cleaned []string) (removed []bool, matched float64) {
	n, m := len(original), len(cleaned)
	removed = make([]bool, n)
	if n == 0 || m == 0 {
		return removed, 0
	}

	// lcs[i*(m+1)+j] is the LCS length of original[i:] and cleaned[j:].
	width := m + 1
	lcs := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case original[i] == cleaned[j]:
				lcs[i*width+j] = lcs[(i+1)*width+j+1] + 1
			case lcs[(i+1)*width+j] >= lcs[i*width+j+1]:
				lcs[i*width+j] = lcs[(i+1)*width+j]
			default:
				lcs[i*width+j] = lcs[i*width+j+1]
			}
		}
	}

	i, j, pairs := 0, 0, 0
	for i < n && j < m {
		switch {
		case original[i] == cleaned[j]:
			i++
			j++
			pairs++
		case lcs[(i+1)*width+j] >= lcs[i*width+j+1]:
			removed[i] = true
			i++
		default:
			// cleaned[j] has no partner: the cleaner inserted a word.
			j++
		}
	}
	for ; i < n; i++ {
		removed[i] = true
	}
	return removed, float64(pairs) / float64(m)
}
