package fingerprint

import (
	"math/bits"
	"strconv"
	"strings"
)

// DefaultSimilarityThreshold is the bit-agreement fraction above which two
// fingerprints are treated as the same recording. Tuned to catch re-encoded
// duplicates without flagging genuinely different songs.
const DefaultSimilarityThreshold = 0.85

// Similarity compares two raw fingerprints and returns their average
// matching-bit fraction in [0,1]. The sequences are compared element-wise up
// to the shorter length; a longer tail (one song trailing out) is ignored.
// Empty or malformed input scores 0 and never matches anything.
func Similarity(fp1, fp2 string) float64 {
	a := parseRaw(fp1)
	b := parseRaw(fp2)

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var matches float64
	for i := 0; i < n; i++ {
		differing := bits.OnesCount32(uint32(a[i]) ^ uint32(b[i]))
		matches += float64(32-differing) / 32.0
	}
	return matches / float64(n)
}

// AreSimilar reports whether two fingerprints agree on at least threshold of
// their bits on average.
func AreSimilar(fp1, fp2 string, threshold float64) bool {
	return Similarity(fp1, fp2) >= threshold
}

// parseRaw decodes a comma-separated int32 list. Any unparseable element
// invalidates the whole fingerprint: legacy rows with garbage must score 0,
// not partially match.
func parseRaw(fp string) []int32 {
	if fp == "" {
		return nil
	}
	parts := strings.Split(fp, ",")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil
		}
		out = append(out, int32(v))
	}
	return out
}
