package study

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"studycards/internal/bank"
	"studycards/internal/models"
	"studycards/internal/report"
)

var errStoreDown = errors.New("store down")

type memoryStore struct {
	mu      sync.Mutex
	data    map[string]models.ScoreMap
	puts    int
	failGet bool
	failPut bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]models.ScoreMap)}
}

func (m *memoryStore) Get(identity, chapter string) (models.ScoreMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errStoreDown
	}
	return m.data[identity+"/"+chapter].Clone(), nil
}

func (m *memoryStore) Put(identity, chapter string, scores models.ScoreMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPut {
		return errStoreDown
	}
	m.data[identity+"/"+chapter] = scores.Clone()
	return nil
}

func (m *memoryStore) stored(identity, chapter string) models.ScoreMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[identity+"/"+chapter]
}

func threeQuestions() *bank.Bank {
	return &bank.Bank{Chapter: "algebra", Questions: []bank.Question{
		{Front: "q0", Back: "a0"},
		{Front: "q1", Back: "a1"},
		{Front: "q2", Back: "a2"},
	}}
}

func mustApply(t *testing.T, s *Session, a Action) Outcome {
	t.Helper()
	out, err := s.Apply(a)
	if err != nil {
		t.Fatalf("Apply(%s) error = %v", a.Kind, err)
	}
	if out.Warning != nil {
		t.Fatalf("Apply(%s) warning = %v", a.Kind, out.Warning)
	}
	return out
}

func TestSessionEndToEnd(t *testing.T) {
	store := newMemoryStore()
	s, err := NewSession("alice", threeQuestions(), store)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if out := mustApply(t, s, Rate(4)); out.State.Position != 1 {
		t.Fatalf("position = %d, want 1", out.State.Position)
	}
	if out := mustApply(t, s, Rate(2)); out.State.Position != 2 {
		t.Fatalf("position = %d, want 2", out.State.Position)
	}

	out := mustApply(t, s, Skip())
	if out.State.Status != ReportPending {
		t.Fatalf("status = %s, want report_pending", out.State.Status)
	}
	if want := []int{2}; !reflect.DeepEqual(out.State.Unanswered, want) {
		t.Errorf("unanswered = %v, want %v", out.State.Unanswered, want)
	}

	out = mustApply(t, s, ConfirmEnd())
	if out.State.Status != Finished {
		t.Fatalf("status = %s, want finished", out.State.Status)
	}

	r := report.Summarize(out.State.Scores, out.State.Total)
	if r.Average != 3.0 || r.Band != report.BandSolid || !reflect.DeepEqual(r.WeakIndices, []int{1}) {
		t.Errorf("report = %+v, want average 3.0 solid [1]", r)
	}

	if want := (models.ScoreMap{0: 4, 1: 2}); !store.stored("alice", "algebra").Equal(want) {
		t.Errorf("stored = %v, want %v", store.stored("alice", "algebra"), want)
	}
	if store.puts != 2 {
		t.Errorf("puts = %d, want one per rating", store.puts)
	}
}

func TestSessionResumesScoresNotPosition(t *testing.T) {
	store := newMemoryStore()
	_ = store.Put("alice", "algebra", models.ScoreMap{0: 5, 1: 3})

	s, err := NewSession("alice", threeQuestions(), store)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	st := s.State()
	if st.Position != 0 {
		t.Errorf("position = %d, want 0", st.Position)
	}
	if want := (models.ScoreMap{0: 5, 1: 3}); !st.Scores.Equal(want) {
		t.Errorf("scores = %v, want %v", st.Scores, want)
	}

	// Only the unrated question is left
	out := mustApply(t, s, RequestEnd())
	if !reflect.DeepEqual(out.State.Unanswered, []int{2}) {
		t.Errorf("unanswered = %v, want [2]", out.State.Unanswered)
	}
}

func TestSessionReadFailure(t *testing.T) {
	store := newMemoryStore()
	store.failGet = true

	if _, err := NewSession("alice", threeQuestions(), store); !errors.Is(err, errStoreDown) {
		t.Errorf("NewSession() error = %v, want store error", err)
	}
}

func TestSessionWriteFailureWarns(t *testing.T) {
	store := newMemoryStore()
	s, err := NewSession("alice", threeQuestions(), store)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	store.failPut = true
	out, err := s.Apply(Rate(3))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !errors.Is(out.Warning, errStoreDown) {
		t.Errorf("Warning = %v, want store error", out.Warning)
	}
	if out.State.Position != 1 {
		t.Errorf("transition should still complete, position = %d", out.State.Position)
	}

	// The next rating retries the full overwrite
	store.failPut = false
	mustApply(t, s, Rate(5))
	if want := (models.ScoreMap{0: 3, 1: 5}); !store.stored("alice", "algebra").Equal(want) {
		t.Errorf("stored = %v, want %v", store.stored("alice", "algebra"), want)
	}
}

func TestSessionRestartKeepsStoredHistory(t *testing.T) {
	store := newMemoryStore()
	s, _ := NewSession("alice", threeQuestions(), store)

	mustApply(t, s, GoTo(2))
	mustApply(t, s, Rate(4))
	mustApply(t, s, Restart())

	if got := s.State(); len(got.Scores) != 0 {
		t.Errorf("working scores = %v, want empty", got.Scores)
	}
	if want := (models.ScoreMap{2: 4}); !store.stored("alice", "algebra").Equal(want) {
		t.Errorf("stored = %v, want %v until next rating", store.stored("alice", "algebra"), want)
	}

	mustApply(t, s, Rate(1))
	if want := (models.ScoreMap{0: 1}); !store.stored("alice", "algebra").Equal(want) {
		t.Errorf("stored = %v, want %v after overwrite", store.stored("alice", "algebra"), want)
	}
}

func TestSessionStateErrorLeavesStateAlone(t *testing.T) {
	store := newMemoryStore()
	s, _ := NewSession("alice", threeQuestions(), store)
	mustApply(t, s, Reveal())
	before := s.State()

	if _, err := s.Apply(ConfirmEnd()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Apply(ConfirmEnd) error = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Apply(Rate(9)); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("Apply(Rate(9)) error = %v, want ErrInvalidScore", err)
	}
	if !reflect.DeepEqual(s.State(), before) {
		t.Errorf("state changed: %+v -> %+v", before, s.State())
	}
	if store.puts != 0 {
		t.Errorf("puts = %d, want 0", store.puts)
	}
}

func TestSnapshot(t *testing.T) {
	s, _ := NewSession("alice", threeQuestions(), newMemoryStore())
	mustApply(t, s, GoTo(1))

	snap := s.Snapshot()
	if snap.Front != "q1" || snap.Back != "" || snap.AnswerVisible {
		t.Errorf("hidden snapshot = %+v", snap)
	}
	if snap.Progress != "2 / 3" {
		t.Errorf("Progress = %q, want %q", snap.Progress, "2 / 3")
	}

	mustApply(t, s, Reveal())
	snap = s.Snapshot()
	if snap.Back != "a1" || !snap.AnswerVisible {
		t.Errorf("revealed snapshot = %+v", snap)
	}
	if snap.Status != Active {
		t.Errorf("Status = %s, want active", snap.Status)
	}
	if snap.Rating != "" {
		t.Errorf("Rating = %q, want empty for an unrated question", snap.Rating)
	}

	mustApply(t, s, Rate(4))
	mustApply(t, s, Previous())
	if snap = s.Snapshot(); snap.Rating != "fluent" {
		t.Errorf("Rating = %q, want %q", snap.Rating, "fluent")
	}
}

func TestSessionConcurrentApply(t *testing.T) {
	store := newMemoryStore()
	b := &bank.Bank{Chapter: "big", Questions: make([]bank.Question, 50)}
	s, _ := NewSession("alice", b, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Apply(Rate(3))
		}()
	}
	wg.Wait()

	st := s.State()
	if st.Position != 20 || len(st.Scores) != 20 {
		t.Errorf("after 20 ratings: position=%d scored=%d, want 20 20", st.Position, len(st.Scores))
	}
}
