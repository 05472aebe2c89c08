package movedetect

import "testing"

func content(data string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(data), nil }
}

func TestDetectExactRename(t *testing.T) {
	deleted := []Candidate{{Path: "original.txt", Size: 5, Content: content("hello")}}
	created := []Candidate{{Path: "renamed.txt", Size: 5, Content: content("hello")}}

	pairs, err := Detect(deleted, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(pairs))
	}
	if pairs[0].Tier != TierAuto {
		t.Errorf("expected identical content to classify as auto, got %v", pairs[0].Tier)
	}
	if pairs[0].Score != 1.0 {
		t.Errorf("expected identical content to score 1.0, got %v", pairs[0].Score)
	}
}

func TestDetectUnrelatedRejectedBySizeRatio(t *testing.T) {
	deleted := []Candidate{{Path: "a.txt", Size: 1000, Content: content("x")}}
	created := []Candidate{{Path: "b.txt", Size: 10, Content: content("y")}}

	pairs, err := Detect(deleted, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected size-ratio prefilter to reject the pair, got %v", pairs)
	}
}

func TestDetectSmallEditScoresHigh(t *testing.T) {
	deleted := []Candidate{{Path: "notes.txt", Size: 11, Content: content("hello world")}}
	created := []Candidate{{Path: "notes2.txt", Size: 11, Content: content("hello wurld")}}

	pairs, err := Detect(deleted, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(pairs))
	}
	if pairs[0].Tier != TierAuto {
		t.Errorf("expected a one-character edit to still classify as auto, got %v", pairs[0].Tier)
	}
}

func TestDetectGreedyPairingPrefersBestMatch(t *testing.T) {
	deleted := []Candidate{
		{Path: "a.txt", Size: 5, Content: content("hello")},
		{Path: "b.txt", Size: 5, Content: content("howdy")},
	}
	created := []Candidate{
		{Path: "c.txt", Size: 5, Content: content("hello")},
	}

	pairs, err := Detect(deleted, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one pair since only one created candidate exists, got %d", len(pairs))
	}
	if pairs[0].DeletedPath != "a.txt" {
		t.Errorf("expected the exact-content match to win the created candidate, got %s", pairs[0].DeletedPath)
	}
}

func TestDetectLowSimilarityOmitted(t *testing.T) {
	deleted := []Candidate{{Path: "a.txt", Size: 10, Content: content("aaaaaaaaaa")}}
	created := []Candidate{{Path: "b.txt", Size: 10, Content: content("zzzzzzzzzz")}}

	pairs, err := Detect(deleted, created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected completely dissimilar content to be omitted, got %v", pairs)
	}
}

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		score    float64
		expected Tier
	}{
		{1.0, TierAuto},
		{0.8, TierAuto},
		{0.79, TierPrompt},
		{0.5, TierPrompt},
		{0.49, TierLow},
		{0.0, TierLow},
	}
	for _, c := range cases {
		if got := Classify(c.score); got != c.expected {
			t.Errorf("Classify(%v) = %v, expected %v", c.score, got, c.expected)
		}
	}
}
