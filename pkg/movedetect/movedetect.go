// Package movedetect pairs LocalOnly-deleted paths with LocalOnly-created
// paths by content similarity, so that a delete+create pair that is really a
// rename is realized as a directory-entry rename rather than an orphan plus
// a brand new document.
package movedetect

import (
	"crypto/sha256"
	"sort"
)

// Tier classifies a candidate pairing's similarity score.
type Tier int

const (
	// TierLow means the pair is unrelated: treat as an ordinary delete and
	// an ordinary create.
	TierLow Tier = iota
	// TierPrompt means the pair is plausible but not confident enough to
	// apply automatically; ask the user (defaulting to "no" when
	// non-interactive).
	TierPrompt
	// TierAuto means the pair is confident enough to apply as a move
	// without confirmation.
	TierAuto
)

const (
	autoThreshold   = 0.8
	promptThreshold = 0.5

	// fullDistanceLimit is the size, in bytes, at or below which similarity
	// is computed via a full edit distance rather than sampled windows.
	fullDistanceLimit = 4 * 1024

	// sampleWindowSize is the width of each sampled window used for larger
	// content.
	sampleWindowSize = 1024
)

// Classify returns the tier a similarity score falls into.
func Classify(score float64) Tier {
	switch {
	case score >= autoThreshold:
		return TierAuto
	case score >= promptThreshold:
		return TierPrompt
	default:
		return TierLow
	}
}

// Candidate is a deleted or created path (which one is given by the list it
// is passed in), with its content available lazily (the MoveDetector never
// needs the full content except when a size-ratio prefilter already passed).
type Candidate struct {
	Path string
	Size int64
	// Content loads the full content on demand. It is called once for each
	// compared pair the candidate takes part in.
	Content func() ([]byte, error)
}

// Pair is a single proposed correspondence between a deleted path and a
// created path.
type Pair struct {
	DeletedPath string
	CreatedPath string
	Score       float64
	Tier        Tier
}

// Detect compares every deleted/created candidate pair, scores them, and
// returns a greedy, conflict-free set of pairings sorted by descending
// score. Pairs scoring below the prompt threshold are omitted entirely;
// callers should treat their endpoints as an unrelated delete and create.
func Detect(deleted, created []Candidate) ([]Pair, error) {
	type scored struct {
		Pair
		deletedIdx int
		createdIdx int
	}

	var candidates []scored
	for di, d := range deleted {
		for ci, c := range created {
			if sizeRatioRejects(d.Size, c.Size) {
				continue
			}
			score, err := similarity(d, c)
			if err != nil {
				return nil, err
			}
			tier := Classify(score)
			if tier == TierLow {
				continue
			}
			candidates = append(candidates, scored{
				Pair: Pair{
					DeletedPath: d.Path,
					CreatedPath: c.Path,
					Score:       score,
					Tier:        tier,
				},
				deletedIdx: di,
				createdIdx: ci,
			})
		}
	}

	// Greedy pairing: sort candidates by descending score, tie-break by
	// shortest path-edit distance then lexicographic destination path, and
	// accept a pair only if neither endpoint has already been consumed.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		aDist := pathEditDistance(a.DeletedPath, a.CreatedPath)
		bDist := pathEditDistance(b.DeletedPath, b.CreatedPath)
		if aDist != bDist {
			return aDist < bDist
		}
		return a.CreatedPath < b.CreatedPath
	})

	deletedConsumed := make(map[int]bool, len(deleted))
	createdConsumed := make(map[int]bool, len(created))
	var result []Pair
	for _, c := range candidates {
		if deletedConsumed[c.deletedIdx] || createdConsumed[c.createdIdx] {
			continue
		}
		deletedConsumed[c.deletedIdx] = true
		createdConsumed[c.createdIdx] = true
		result = append(result, c.Pair)
	}
	return result, nil
}

// sizeRatioRejects implements the size-ratio prefilter: pairs whose sizes
// differ by more than 50% are rejected without computing a similarity
// score.
func sizeRatioRejects(a, b int64) bool {
	if a == 0 && b == 0 {
		return false
	}
	larger, smaller := a, b
	if smaller > larger {
		larger, smaller = smaller, larger
	}
	if larger == 0 {
		return true
	}
	return float64(smaller)/float64(larger) < 0.5
}

func similarity(d, c Candidate) (float64, error) {
	dContent, err := d.Content()
	if err != nil {
		return 0, err
	}
	cContent, err := c.Content()
	if err != nil {
		return 0, err
	}

	if sha256.Sum256(dContent) == sha256.Sum256(cContent) {
		return 1.0, nil
	}

	if len(dContent) <= fullDistanceLimit && len(cContent) <= fullDistanceLimit {
		return editSimilarity(dContent, cContent), nil
	}

	return sampledSimilarity(dContent, cContent), nil
}

// sampledSimilarity averages the edit-distance similarity of three 1 KiB
// windows (first, middle, last) rather than diffing the whole content,
// keeping move detection cheap for large files.
func sampledSimilarity(a, b []byte) float64 {
	total := 0.0
	windows := [][2][]byte{
		{window(a, 0), window(b, 0)},
		{window(a, len(a)/2), window(b, len(b)/2)},
		{window(a, len(a)-sampleWindowSize), window(b, len(b)-sampleWindowSize)},
	}
	for _, w := range windows {
		total += editSimilarity(w[0], w[1])
	}
	return total / float64(len(windows))
}

func window(data []byte, start int) []byte {
	if start < 0 {
		start = 0
	}
	if start > len(data) {
		start = len(data)
	}
	end := start + sampleWindowSize
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}

// editSimilarity computes 1 - lev(a,b)/max(|a|,|b|) over raw bytes, treating
// text and binary content uniformly (binary content is compared as its own
// byte sequence; no hex encoding is applied).
func editSimilarity(a, b []byte) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes the edit distance between two byte slices using the
// standard dynamic-programming matrix.
func levenshtein(a, b []byte) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// pathEditDistance tie-breaks equally scored candidates by how different
// the deleted and created paths are, preferring the pairing that looks the
// most like a simple rename.
func pathEditDistance(a, b string) int {
	return levenshtein([]byte(a), []byte(b))
}
