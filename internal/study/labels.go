package study

var scoreLabels = [...]string{"no idea", "vague", "understood", "fluent", "instant"}

// ScoreLabel returns the caption for a mastery score, or "" when out of range
func ScoreLabel(score int) string {
	if score < 1 || score > len(scoreLabels) {
		return ""
	}
	return scoreLabels[score-1]
}
