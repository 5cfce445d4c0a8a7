package lexical

// Bitap approximate matching over runes. The score of a candidate location
// combines edit errors (normalized by pattern length) with its distance from
// the expected location at the start of the text, so typos and late matches
// both cost relevance on the same 0 (exact) to 1 (no match) scale.

const (
	// expectedLocation is where a match is assumed to start.
	expectedLocation = 0
	// matchDistance scales the location penalty: a match this many runes
	// away from expectedLocation costs a full error.
	matchDistance = 100
	// maxPatternLen is bounded by the uint64 bit masks. Longer fragments
	// are truncated; titles in the corpus are far shorter anyway.
	maxPatternLen = 63
)

// bitapScore computes the normalized score for a match with the given error
// count at the given location.
func bitapScore(errors, location, patternLen int) float64 {
	accuracy := float64(errors) / float64(patternLen)
	proximity := location - expectedLocation
	if proximity < 0 {
		proximity = -proximity
	}
	return accuracy + float64(proximity)/float64(matchDistance)
}

// alphabet builds the per-rune bit masks for the pattern.
func alphabet(pattern []rune) map[rune]uint64 {
	masks := make(map[rune]uint64, len(pattern))
	for i, r := range pattern {
		masks[r] |= 1 << uint(len(pattern)-i-1)
	}
	return masks
}

// indexRunes returns the first index of pattern in text, or -1.
func indexRunes(text, pattern []rune) int {
	for i := 0; i+len(pattern) <= len(text); i++ {
		j := 0
		for ; j < len(pattern); j++ {
			if text[i+j] != pattern[j] {
				break
			}
		}
		if j == len(pattern) {
			return i
		}
	}
	return -1
}

// bitapSearch finds the best approximate occurrence of pattern in text and
// returns its score. ok is false when no location scores at or below the
// threshold.
func bitapSearch(text, pattern []rune, threshold float64) (score float64, ok bool) {
	if len(pattern) == 0 || len(text) == 0 {
		return 1, false
	}
	if len(pattern) > maxPatternLen {
		pattern = pattern[:maxPatternLen]
	}
	m := len(pattern)

	scoreThreshold := threshold
	bestLoc := -1

	// An exact substring hit tightens the threshold before the expensive
	// error-level sweep.
	if idx := indexRunes(text, pattern); idx >= 0 {
		if s := bitapScore(0, idx, m); s <= scoreThreshold {
			scoreThreshold = s
			bestLoc = idx
		}
	}

	masks := alphabet(pattern)
	matchMask := uint64(1) << uint(m-1)
	var lastRd []uint64
	binMax := m + len(text)

	for d := 0; d < m; d++ {
		// Binary-search the widest window around expectedLocation that can
		// still beat the current threshold at this error level.
		binMin := 0
		binMid := binMax
		for binMin < binMid {
			if bitapScore(d, expectedLocation+binMid, m) <= scoreThreshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid
		start := maxInt(1, expectedLocation-binMid+1)
		finish := minInt(expectedLocation+binMid, len(text)) + m

		rd := make([]uint64, finish+2)
		rd[finish+1] = (1 << uint(d)) - 1
		for j := finish; j >= start; j-- {
			var charMatch uint64
			if j-1 < len(text) {
				charMatch = masks[text[j-1]]
			}
			if d == 0 {
				rd[j] = ((rd[j+1] << 1) | 1) & charMatch
			} else {
				rd[j] = ((rd[j+1]<<1)|1)&charMatch |
					(((lastRd[j+1] | lastRd[j]) << 1) | 1) |
					lastRd[j+1]
			}
			if rd[j]&matchMask != 0 {
				s := bitapScore(d, j-1, m)
				if s <= scoreThreshold {
					scoreThreshold = s
					bestLoc = j - 1
					if bestLoc <= expectedLocation {
						// Nothing to the left can score better.
						break
					}
					start = maxInt(1, 2*expectedLocation-bestLoc)
				}
			}
		}
		// No point in allowing one more error if even a perfectly placed
		// match would exceed the threshold.
		if bitapScore(d+1, expectedLocation, m) > scoreThreshold {
			break
		}
		lastRd = rd
	}

	if bestLoc < 0 {
		return 1, false
	}
	return scoreThreshold, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
