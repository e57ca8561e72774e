package fingerprint

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		fp1, fp2 string
		want     float64
	}{
		// Identical sequences agree on every bit
		{"Identical", "123,456,789", "123,456,789", 1.0},

		// -1 is all 32 bits set, 0 is none: total disagreement
		{"Opposite", "0", "-1", 0.0},

		// 15 = 0b1111, 4 differing bits out of 32
		{"Four Bits Off", "0", "15", 28.0 / 32.0},

		// Comparison runs over the shorter sequence; the tail is ignored
		{"Prefix Match", "7,7", "7,7,999,999", 1.0},

		// Degenerate inputs score zero, never crash
		{"Both Empty", "", "", 0.0},
		{"One Empty", "1,2,3", "", 0.0},
		{"Malformed Element", "12,abc,34", "12,0,34", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.fp1, tt.fp2)
			if got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.fp1, tt.fp2, got, tt.want)
			}
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	fp1 := "100,-200,300,400"
	fp2 := "100,-200,301,405"

	ab := Similarity(fp1, fp2)
	ba := Similarity(fp2, fp1)
	if ab != ba {
		t.Errorf("Similarity is not symmetric: %v vs %v", ab, ba)
	}

	// Same inputs must always produce the same score
	if again := Similarity(fp1, fp2); again != ab {
		t.Errorf("Similarity is not deterministic: %v then %v", ab, again)
	}

	if ab < 0 || ab > 1 {
		t.Errorf("Similarity out of [0,1]: %v", ab)
	}
}

func TestAreSimilarThresholdBoundary(t *testing.T) {
	// 31 = 0b11111 (5 differing bits), 15 = 0b1111 (4). Four elements at
	// 27/32 plus one at 28/32 averages to exactly 0.85.
	atThreshold := "31,31,31,31,15"
	belowThreshold := "31,31,31,31,31" // 27/32 = 0.84375
	zeros := "0,0,0,0,0"

	if got := Similarity(zeros, atThreshold); got != 0.85 {
		t.Fatalf("boundary fixture drifted: got %v, want 0.85", got)
	}

	if !AreSimilar(zeros, atThreshold, DefaultSimilarityThreshold) {
		t.Error("score exactly at threshold should match (>= comparison)")
	}
	if AreSimilar(zeros, belowThreshold, DefaultSimilarityThreshold) {
		t.Error("score below threshold should not match")
	}
}
