package study

import (
	"fmt"
	"sync"

	"studycards/internal/bank"
	"studycards/internal/models"
)

// ScoreStore is the persistence a session reads from and writes through to
type ScoreStore interface {
	Get(identity, chapter string) (models.ScoreMap, error)
	Put(identity, chapter string, scores models.ScoreMap) error
}

// Outcome is the result of a successfully applied action. Warning is set
// when the transition happened but its write-through failed.
type Outcome struct {
	State   State
	Warning error
}

// Session binds a State to one identity and question bank
type Session struct {
	mu       sync.Mutex
	identity string
	bank     *bank.Bank
	store    ScoreStore
	state    State
}

// NewSession starts a session seeded from the stored scores for
// (identity, bank.Chapter). A failed read fails construction.
func NewSession(identity string, b *bank.Bank, store ScoreStore) (*Session, error) {
	stored, err := store.Get(identity, b.Chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	state, err := NewState(b.Chapter, b.Len(), stored)
	if err != nil {
		return nil, err
	}

	return &Session{
		identity: identity,
		bank:     b,
		store:    store,
		state:    state,
	}, nil
}

// Identity returns the user the session belongs to
func (s *Session) Identity() string {
	return s.identity
}

// Bank returns the question bank being studied
func (s *Session) Bank() *bank.Bank {
	return s.bank
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Apply runs one action. A rating writes the whole score map through to
// the store before Apply returns; a failed write does not undo the
// transition and is reported as Outcome.Warning.
func (s *Session) Apply(a Action) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Transition(s.state, a)
	if err != nil {
		return Outcome{State: copyState(s.state)}, err
	}
	s.state = next

	out := Outcome{State: copyState(next)}
	if a.Kind == ActRate {
		if err := s.store.Put(s.identity, next.Chapter, next.Scores.Clone()); err != nil {
			out.Warning = fmt.Errorf("progress may not have been saved: %w", err)
		}
	}
	return out, nil
}

// Snapshot returns the view of the session the presentation layer needs
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSnapshot(s.bank, s.state)
}

func copyState(st State) State {
	st.Scores = st.Scores.Clone()
	st.Unanswered = append([]int(nil), st.Unanswered...)
	return st
}
