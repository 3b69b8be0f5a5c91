// Package study implements the flashcard study-session state machine.
//
// Transition is pure: it takes a State and an Action and returns the next
// State without touching storage. Session wraps a State for one user and
// chapter, serializes actions and writes every rating through to a store.
package study

import (
	"errors"
	"fmt"

	"studycards/internal/models"
)

// Status is the phase a session is in
type Status int

const (
	Active Status = iota
	ReportPending
	Finished
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case ReportPending:
		return "report_pending"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ActionKind names a user action
type ActionKind int

const (
	ActReveal ActionKind = iota
	ActRate
	ActGoTo
	ActPrevious
	ActSkip
	ActRequestEnd
	ActConfirmEnd
	ActCancelEnd
	ActRestart
)

var actionNames = map[ActionKind]string{
	ActReveal:     "reveal",
	ActRate:       "rate",
	ActGoTo:       "goto",
	ActPrevious:   "previous",
	ActSkip:       "skip",
	ActRequestEnd: "end",
	ActConfirmEnd: "confirm end",
	ActCancelEnd:  "cancel end",
	ActRestart:    "restart",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is a user action. Arg carries the score for Rate and the index for GoTo.
type Action struct {
	Kind ActionKind
	Arg  int
}

func Reveal() Action        { return Action{Kind: ActReveal} }
func Rate(score int) Action { return Action{Kind: ActRate, Arg: score} }
func GoTo(index int) Action { return Action{Kind: ActGoTo, Arg: index} }
func Previous() Action      { return Action{Kind: ActPrevious} }
func Skip() Action          { return Action{Kind: ActSkip} }
func RequestEnd() Action    { return Action{Kind: ActRequestEnd} }
func ConfirmEnd() Action    { return Action{Kind: ActConfirmEnd} }
func CancelEnd() Action     { return Action{Kind: ActCancelEnd} }
func Restart() Action       { return Action{Kind: ActRestart} }

var (
	ErrInvalidTransition = errors.New("study: invalid transition")
	ErrInvalidScore      = errors.New("study: score out of range")
	ErrIndexOutOfRange   = errors.New("study: index out of range")
	ErrEmptyBank         = errors.New("study: bank has no questions")
)

// StateError reports an action that is not allowed in the current status
type StateError struct {
	Action ActionKind
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("study: %s not allowed while %s", e.Action, e.Status)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// State is the full state of one study session.
// Invariant: 0 <= Position < Total.
type State struct {
	Chapter       string
	Total         int
	Scores        models.ScoreMap
	Position      int
	AnswerVisible bool
	Status        Status
	// Unanswered is set while ReportPending
	Unanswered []int
}

// NewState returns the initial state for a chapter of total questions,
// seeded with previously stored scores. Browsing always starts at the
// first question. Scores for indices outside the chapter are dropped.
func NewState(chapter string, total int, stored models.ScoreMap) (State, error) {
	if total < 1 {
		return State{}, ErrEmptyBank
	}

	scores := make(models.ScoreMap, len(stored))
	for index, score := range stored {
		if index >= 0 && index < total && models.ValidScore(score) {
			scores[index] = score
		}
	}

	return State{
		Chapter: chapter,
		Total:   total,
		Scores:  scores,
		Status:  Active,
	}, nil
}

// Last reports whether the position is on the final question
func (s State) Last() bool {
	return s.Position == s.Total-1
}

// Transition applies a to s and returns the next state. On error s is
// returned unchanged. The returned state never shares its score map with s.
func Transition(s State, a Action) (State, error) {
	if !allowed(s.Status, a.Kind) {
		return s, &StateError{Action: a.Kind, Status: s.Status}
	}

	next := s
	next.Scores = s.Scores.Clone()
	next.Unanswered = append([]int(nil), s.Unanswered...)

	switch a.Kind {
	case ActReveal:
		next.AnswerVisible = true

	case ActRate:
		if !models.ValidScore(a.Arg) {
			return s, fmt.Errorf("%w: %d", ErrInvalidScore, a.Arg)
		}
		next.Scores[s.Position] = a.Arg
		if s.Last() {
			next.Status = Finished
		} else {
			next.Position++
			next.AnswerVisible = false
		}

	case ActGoTo:
		if a.Arg < 0 || a.Arg >= s.Total {
			return s, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, a.Arg, s.Total)
		}
		next.Position = a.Arg
		next.AnswerVisible = false

	case ActPrevious:
		if s.Position > 0 {
			next.Position--
			next.AnswerVisible = false
		}

	case ActSkip:
		if s.Last() {
			return requestEnd(next), nil
		}
		next.Position++
		next.AnswerVisible = false

	case ActRequestEnd:
		return requestEnd(next), nil

	case ActConfirmEnd:
		next.Status = Finished
		next.Unanswered = nil

	case ActCancelEnd:
		next.Status = Active
		next.Unanswered = nil

	case ActRestart:
		next.Status = Active
		next.Position = 0
		next.AnswerVisible = false
		next.Scores = make(models.ScoreMap)
		next.Unanswered = nil

	default:
		return s, &StateError{Action: a.Kind, Status: s.Status}
	}

	return next, nil
}

// requestEnd leaves position and visibility untouched so CancelEnd can
// return to exactly where the user was.
func requestEnd(s State) State {
	s.Unanswered = s.Scores.Unrated(s.Total)
	if len(s.Unanswered) == 0 {
		s.Status = Finished
	} else {
		s.Status = ReportPending
	}
	return s
}

func allowed(status Status, kind ActionKind) bool {
	switch status {
	case Active:
		switch kind {
		case ActReveal, ActRate, ActGoTo, ActPrevious, ActSkip, ActRequestEnd:
			return true
		}
	case ReportPending:
		return kind == ActConfirmEnd || kind == ActCancelEnd
	case Finished:
		return kind == ActRestart
	}
	return false
}
