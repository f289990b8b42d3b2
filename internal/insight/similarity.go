package insight

import "strings"

// Similarity scores word overlap between two strings: the size of the
// intersection of their lowercased word sets divided by the size of the
// larger set. Symmetric, in [0,1]; identical non-empty strings score 1.0.
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	common := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			common++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(common) / float64(larger)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
