package study

import (
	"fmt"

	"studycards/internal/bank"
)

// Snapshot is a read-only view of a session
type Snapshot struct {
	Chapter       string      `json:"chapter"`
	Position      int         `json:"position"`
	Total         int         `json:"total"`
	Progress      string      `json:"progress"`
	Front         string      `json:"front"`
	Back          string      `json:"back,omitempty"`
	AnswerVisible bool        `json:"answer_visible"`
	Scores        map[int]int `json:"scores"`
	Rating        string      `json:"rating,omitempty"`
	Status        Status      `json:"status"`
	Unanswered    []int       `json:"unanswered,omitempty"`
}

func newSnapshot(b *bank.Bank, st State) Snapshot {
	q := b.Questions[st.Position]
	snap := Snapshot{
		Chapter:       st.Chapter,
		Position:      st.Position,
		Total:         st.Total,
		Progress:      fmt.Sprintf("%d / %d", st.Position+1, st.Total),
		Front:         q.Front,
		AnswerVisible: st.AnswerVisible,
		Scores:        st.Scores.Clone(),
		Status:        st.Status,
		Unanswered:    append([]int(nil), st.Unanswered...),
	}
	if score, ok := st.Scores[st.Position]; ok {
		snap.Rating = ScoreLabel(score)
	}
	if st.AnswerVisible {
		snap.Back = q.Back
	}
	return snap
}
