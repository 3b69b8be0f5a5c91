// Package report summarizes a chapter's mastery scores.
package report

import (
	"studycards/internal/bank"
	"studycards/internal/models"
)

// Qualitative bands for an average score
const (
	BandExcellent   = "excellent"
	BandSolid       = "solid"
	BandNeedsReview = "needs review"
	BandNoData      = "no data"
)

// WeakThreshold is the highest score that still counts as weak
const WeakThreshold = 3

// Report is a summary of one score map. Average is only meaningful when HasData.
type Report struct {
	ScoredCount int     `json:"scored_count"`
	Total       int     `json:"total"`
	Average     float64 `json:"average"`
	HasData     bool    `json:"has_data"`
	Band        string  `json:"band"`
	WeakIndices []int   `json:"weak_indices"`
}

// Summarize builds a report from scores for a chapter of total questions
func Summarize(scores models.ScoreMap, total int) Report {
	r := Report{
		ScoredCount: len(scores),
		Total:       total,
		Band:        BandNoData,
		WeakIndices: []int{},
	}
	if len(scores) == 0 {
		return r
	}

	sum := 0
	for _, index := range scores.Indices() {
		score := scores[index]
		sum += score
		if score <= WeakThreshold {
			r.WeakIndices = append(r.WeakIndices, index)
		}
	}

	r.HasData = true
	r.Average = float64(sum) / float64(len(scores))
	r.Band = band(r.Average)
	return r
}

func band(average float64) string {
	switch {
	case average >= 4.0:
		return BandExcellent
	case average >= 3.0:
		return BandSolid
	default:
		return BandNeedsReview
	}
}

// WeakItem is a weak question with its text, for a remediation listing
type WeakItem struct {
	Index int    `json:"index"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Weak attaches question text to indices. Indices outside the bank are skipped.
func Weak(b *bank.Bank, indices []int) []WeakItem {
	items := make([]WeakItem, 0, len(indices))
	for _, index := range indices {
		if index < 0 || index >= b.Len() {
			continue
		}
		q := b.Questions[index]
		items = append(items, WeakItem{Index: index, Front: q.Front, Back: q.Back})
	}
	return items
}
