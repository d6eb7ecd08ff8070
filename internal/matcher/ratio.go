package matcher

// Fuzzy similarity scoring for FAQ keyword triggers. PartialRatio mirrors
// the classic partial-ratio metric: the shorter string is compared against
// every window of the same length in the longer string and the best window
// similarity wins. Scores are integers in [0,100].

// Ratio scores the similarity of two rune slices as
// round(200 * matches / (len(a)+len(b))), where matches is the total size
// of the matching blocks found by recursive longest-common-substring
// decomposition (Ratcliff/Obershelp).
func ratio(a, b []rune) int {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	matches := matchingBlockTotal(a, b)
	return int((200.0*float64(matches))/float64(la+lb) + 0.5)
}

// matchingBlockTotal sums the lengths of the matching blocks between a
// and b: the longest common substring, then recursively the pieces to its
// left and to its right.
func matchingBlockTotal(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlockTotal(a[:ai], b[:bi])
	total += matchingBlockTotal(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	// prev[j] holds the length of the common suffix ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}

// PartialRatio returns the best ratio between the shorter of a, b and any
// equal-length window of the longer one. A verbatim occurrence of the
// shorter string inside the longer scores 100. Case folding is up to the
// caller.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	if len(ra) == len(rb) {
		return ratio(ra, rb)
	}

	best := 0
	for start := 0; start+len(ra) <= len(rb); start++ {
		score := ratio(ra, rb[start:start+len(ra)])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}
