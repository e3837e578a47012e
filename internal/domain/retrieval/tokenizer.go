package retrieval

import "strings"

// TokenSet is a set of normalized tokens.
type TokenSet map[string]struct{}

// Tokenize lower-cases text and returns the set of maximal runs of ASCII
// letters and digits. Everything else separates tokens.
func Tokenize(text string) TokenSet {
	out := TokenSet{}
	lower := strings.ToLower(text)
	start := -1
	for i := 0; i < len(lower); i++ {
		if isTokenByte(lower[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out[lower[start:i]] = struct{}{}
			start = -1
		}
	}
	if start >= 0 {
		out[lower[start:]] = struct{}{}
	}
	return out
}

func isTokenByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// Similarity returns the Jaccard similarity of two token sets. Two empty
// sets score 0.
func Similarity(a, b TokenSet) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		union = 1
	}
	return float64(inter) / float64(union)
}

// Normalize min-max scales a batch of scores into [0,1]. A flat or empty
// batch is returned unchanged. Scores are only comparable within the batch
// they were normalized in.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	copy(out, scores)
	if len(scores) == 0 {
		return out
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi-lo == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}
