package models

import "sort"

// MinScore and MaxScore bound a mastery score
const (
	MinScore = 1
	MaxScore = 5
)

// ScoreMap maps a 0-based question index to its mastery score.
// A missing key means the question has not been rated.
type ScoreMap map[int]int

// ValidScore reports whether score is within the mastery scale
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Clone returns an independent copy of the map
func (m ScoreMap) Clone() ScoreMap {
	out := make(ScoreMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Indices returns the rated indices in ascending order
func (m ScoreMap) Indices() []int {
	indices := make([]int, 0, len(m))
	for k := range m {
		indices = append(indices, k)
	}
	sort.Ints(indices)
	return indices
}

// Unrated returns every index in [0, total) that has no score, ascending
func (m ScoreMap) Unrated(total int) []int {
	var out []int
	for i := 0; i < total; i++ {
		if _, ok := m[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// Equal reports whether both maps hold the same index/score pairs
func (m ScoreMap) Equal(other ScoreMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ChapterHistory is one user's stored scores for one chapter
type ChapterHistory struct {
	Identity string
	Chapter  string
	Scores   ScoreMap
}
