package nlp

// PartialRatio scores how well the shorter of a and b aligns with any
// substring of the longer one, from 0 to 100. Each candidate window is scored
// with the indel similarity 100 * (1 - (len1+len2-2*LCS)/(len1+len2)).
// Windows include partial overlaps at both ends of the longer string, so a
// keyword cut off at the edge of a message still scores.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	shorter, longer := ra, rb
	if len(ra) > len(rb) {
		shorter, longer = rb, ra
	}

	score := partialRatioWindows(shorter, longer)
	if score != 100 && len(ra) == len(rb) {
		if swapped := partialRatioWindows(longer, shorter); swapped > score {
			score = swapped
		}
	}
	return score
}

func partialRatioWindows(needle, hay []rune) float64 {
	n, m := len(needle), len(hay)
	best := 0.0

	consider := func(window []rune) bool {
		if s := indelRatio(needle, window); s > best {
			best = s
		}
		return best == 100
	}

	// windows that hang off the left edge
	for i := 1; i < n; i++ {
		if consider(hay[:i]) {
			return best
		}
	}
	for i := 0; i <= m-n; i++ {
		if consider(hay[i : i+n]) {
			return best
		}
	}
	// and off the right edge
	for i := m - n + 1; i < m; i++ {
		if consider(hay[i:]) {
			return best
		}
	}
	return best
}

func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := total - 2*lcsLength(a, b)
	return (1 - float64(dist)/float64(total)) * 100
}

// lcsLength is the classic two-row dynamic program over runes.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
