package service

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"studycards/internal/bank"
	"studycards/internal/models"
	"studycards/internal/report"
	"studycards/internal/study"
)

// ErrNoActiveSession is returned when a study action arrives before a chapter was started
var ErrNoActiveSession = errors.New("no active study session")

// ScoreStore is the score persistence the study service needs
type ScoreStore interface {
	study.ScoreStore
	Delete(identity, chapter string) error
	Chapters(identity string) ([]string, error)
}

// ReportView is a report plus the text of its weak questions
type ReportView struct {
	Chapter string            `json:"chapter"`
	Status  study.Status      `json:"status"`
	Report  report.Report     `json:"report"`
	Weak    []report.WeakItem `json:"weak"`
}

// HistoryEntry summarizes one stored chapter for its owner
type HistoryEntry struct {
	Chapter string          `json:"chapter"`
	Scores  models.ScoreMap `json:"scores"`
	Report  report.Report   `json:"report"`
}

// StudyService runs study sessions, one per login session
type StudyService struct {
	source bank.Source
	scores ScoreStore
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*study.Session
}

// NewStudyService creates a new study service
func NewStudyService(source bank.Source, scores ScoreStore, logger *zap.Logger) *StudyService {
	return &StudyService{
		source:   source,
		scores:   scores,
		logger:   logger,
		sessions: make(map[string]*study.Session),
	}
}

// Chapters lists the chapters available to study
func (s *StudyService) Chapters() ([]string, error) {
	chapters, err := s.source.Chapters()
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// Start loads a chapter and replaces any session held by loginID. On a load
// or read error no session is created and the previous one is kept.
func (s *StudyService) Start(loginID, identity, chapter string) (study.Snapshot, error) {
	b, err := s.source.Load(chapter)
	if err != nil {
		return study.Snapshot{}, err
	}

	session, err := study.NewSession(identity, b, s.scores)
	if err != nil {
		return study.Snapshot{}, err
	}

	s.mu.Lock()
	s.sessions[loginID] = session
	s.mu.Unlock()

	s.logger.Debug("study session started",
		zap.String("identity", identity),
		zap.String("chapter", chapter),
		zap.Int("questions", b.Len()),
	)
	return session.Snapshot(), nil
}

// Session returns the active session for loginID
func (s *StudyService) Session(loginID string) (*study.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[loginID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return session, nil
}

// Apply runs one action on the active session. A failed write-through is
// logged and returned in the outcome's Warning, not as an error.
func (s *StudyService) Apply(loginID string, action study.Action) (study.Outcome, study.Snapshot, error) {
	session, err := s.Session(loginID)
	if err != nil {
		return study.Outcome{}, study.Snapshot{}, err
	}

	out, err := session.Apply(action)
	if err != nil {
		var stateErr *study.StateError
		if errors.As(err, &stateErr) {
			s.logger.Error("rejected study transition",
				zap.String("identity", session.Identity()),
				zap.Stringer("action", stateErr.Action),
				zap.Stringer("status", stateErr.Status),
			)
		}
		return out, session.Snapshot(), err
	}

	if out.Warning != nil {
		s.logger.Warn("score write-through failed",
			zap.String("identity", session.Identity()),
			zap.String("chapter", out.State.Chapter),
			zap.Error(out.Warning),
		)
	}
	return out, session.Snapshot(), nil
}

// Report summarizes the active session's working scores. Partial reports are allowed.
func (s *StudyService) Report(loginID string) (ReportView, error) {
	session, err := s.Session(loginID)
	if err != nil {
		return ReportView{}, err
	}

	st := session.State()
	r := report.Summarize(st.Scores, st.Total)
	return ReportView{
		Chapter: st.Chapter,
		Status:  st.Status,
		Report:  r,
		Weak:    report.Weak(session.Bank(), r.WeakIndices),
	}, nil
}

// End drops the sessions held by the given login ids, if any
func (s *StudyService) End(loginIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range loginIDs {
		delete(s.sessions, id)
	}
}

// ActiveSessions reports how many study sessions are held
func (s *StudyService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// History summarizes every stored chapter for identity. The total comes from
// the current bank when the chapter still loads, else from the stored count.
func (s *StudyService) History(identity string) ([]HistoryEntry, error) {
	chapters, err := s.scores.Chapters(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(chapters))
	for _, chapter := range chapters {
		scores, err := s.scores.Get(identity, chapter)
		if err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}

		total := len(scores)
		if b, err := s.source.Load(chapter); err == nil {
			total = b.Len()
		}

		entries = append(entries, HistoryEntry{
			Chapter: chapter,
			Scores:  scores,
			Report:  report.Summarize(scores, total),
		})
	}
	return entries, nil
}

// ResetHistory erases the stored scores for one chapter. Active sessions of
// identity on that chapter are ended, otherwise their next rating would
// write the erased scores back. It returns how many sessions were ended.
func (s *StudyService) ResetHistory(identity, chapter string) (int, error) {
	if err := s.scores.Delete(identity, chapter); err != nil {
		return 0, fmt.Errorf("failed to reset history: %w", err)
	}

	s.mu.Lock()
	ended := 0
	for id, session := range s.sessions {
		if session.Identity() == identity && session.Bank().Chapter == chapter {
			delete(s.sessions, id)
			ended++
		}
	}
	s.mu.Unlock()

	s.logger.Info("history reset",
		zap.String("identity", identity),
		zap.String("chapter", chapter),
		zap.Int("sessions_ended", ended),
	)
	return ended, nil
}
