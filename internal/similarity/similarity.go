package similarity

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// LongTextThreshold is the rune count above which scoring switches from
// Levenshtein to bigram overlap. Levenshtein is precise but O(n·m); the
// bigram Jaccard index is a linear approximation acceptable for
// paragraph-length game text.
const LongTextThreshold = 100

// Score returns the similarity between two strings in [0.0, 1.0].
// Identical strings score 1.0 and short-circuit before either algorithm;
// the empty string scores 0.0 against everything else. Strings up to
// LongTextThreshold runes are compared by normalized Levenshtein distance
// over Unicode scalars, longer ones by Jaccard overlap of their bigram sets.
// Callers normalize (typically lowercase) before scoring.
func Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	lenA := utf8.RuneCountInString(a)
	lenB := utf8.RuneCountInString(b)

	if lenA > LongTextThreshold || lenB > LongTextThreshold {
		return bigramJaccard(a, b)
	}

	maxLen := lenA
	if lenB > maxLen {
		maxLen = lenB
	}

	distance := edlib.LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// bigramJaccard computes |intersection| / |union| over the bigram sets of
// both strings. Either set empty yields 0.0.
func bigramJaccard(a, b string) float64 {
	bigramsA := bigramSet(a)
	bigramsB := bigramSet(b)

	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0.0
	}

	intersection := 0
	for bigram := range bigramsA {
		if bigramsB[bigram] {
			intersection++
		}
	}

	union := len(bigramsA) + len(bigramsB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// bigramSet extracts the set of adjacent rune pairs from a string.
// A string shorter than two runes has no bigrams.
func bigramSet(s string) map[string]bool {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}

	bigrams := make(map[string]bool, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		bigrams[string(runes[i:i+2])] = true
	}
	return bigrams
}
