package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"studycards/internal/database"
	"studycards/internal/models"
)

var (
	// ErrReadFailure wraps any failure to read stored scores
	ErrReadFailure = errors.New("score read failed")
	// ErrWriteFailure wraps any failure to persist scores
	ErrWriteFailure = errors.New("score write failed")
	// ErrUnknownIdentity is returned when scores are written for an unregistered identity
	ErrUnknownIdentity = errors.New("unknown identity")
)

// ScoreRepository persists per-user, per-chapter score maps
type ScoreRepository struct {
	db *database.DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *database.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Get returns the stored score map for (identity, chapter).
// An empty map is returned when nothing has been recorded.
func (r *ScoreRepository) Get(identity, chapter string) (models.ScoreMap, error) {
	query := `
		SELECT cs.question_index, cs.score
		FROM chapter_scores cs
		JOIN users u ON u.id = cs.user_id
		WHERE u.identity = ? AND cs.chapter = ?
	`
	rows, err := r.db.Query(query, identity, chapter)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrReadFailure, identity, chapter, err)
	}
	defer rows.Close()

	scores := make(models.ScoreMap)
	for rows.Next() {
		var index, score int
		if err := rows.Scan(&index, &score); err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w", ErrReadFailure, identity, chapter, err)
		}
		scores[index] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrReadFailure, identity, chapter, err)
	}

	return scores, nil
}

// Put replaces the whole stored map for (identity, chapter). It is a total
// overwrite, not a merge, and commits before returning.
func (r *ScoreRepository) Put(identity, chapter string, scores models.ScoreMap) error {
	for index, score := range scores {
		if index < 0 || !models.ValidScore(score) {
			return fmt.Errorf("%w: invalid entry %d=%d", ErrWriteFailure, index, score)
		}
	}

	err := r.db.WithinTx(func(tx *database.Tx) error {
		userID, err := userIDFor(tx, identity)
		if err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM chapter_scores WHERE user_id = ? AND chapter = ?", userID, chapter); err != nil {
			return fmt.Errorf("failed to clear scores: %w", err)
		}

		now := time.Now().UTC()
		for _, index := range scores.Indices() {
			_, err := tx.Exec(`
				INSERT INTO chapter_scores (user_id, chapter, question_index, score, updated_at)
				VALUES (?, ?, ?, ?, ?)
			`, userID, chapter, index, scores[index], now)
			if err != nil {
				return fmt.Errorf("failed to insert score: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %w", ErrWriteFailure, identity, chapter, err)
	}

	return nil
}

// Delete removes the stored map for (identity, chapter)
func (r *ScoreRepository) Delete(identity, chapter string) error {
	query := `
		DELETE FROM chapter_scores
		WHERE chapter = ? AND user_id IN (SELECT id FROM users WHERE identity = ?)
	`
	if _, err := r.db.Exec(query, chapter, identity); err != nil {
		return fmt.Errorf("%w: %s/%s: %w", ErrWriteFailure, identity, chapter, err)
	}
	return nil
}

// Chapters lists the chapters with stored scores for identity, sorted
func (r *ScoreRepository) Chapters(identity string) ([]string, error) {
	query := `
		SELECT DISTINCT cs.chapter
		FROM chapter_scores cs
		JOIN users u ON u.id = cs.user_id
		WHERE u.identity = ?
		ORDER BY cs.chapter
	`
	rows, err := r.db.Query(query, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: chapters for %s: %w", ErrReadFailure, identity, err)
	}
	defer rows.Close()

	var chapters []string
	for rows.Next() {
		var chapter string
		if err := rows.Scan(&chapter); err != nil {
			return nil, fmt.Errorf("%w: chapters for %s: %w", ErrReadFailure, identity, err)
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: chapters for %s: %w", ErrReadFailure, identity, err)
	}

	return chapters, nil
}

// All returns every stored chapter history, ordered by identity then chapter
func (r *ScoreRepository) All() ([]models.ChapterHistory, error) {
	query := `
		SELECT u.identity, cs.chapter, cs.question_index, cs.score
		FROM chapter_scores cs
		JOIN users u ON u.id = cs.user_id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: all scores: %w", ErrReadFailure, err)
	}
	defer rows.Close()

	type key struct{ identity, chapter string }
	grouped := make(map[key]models.ScoreMap)
	for rows.Next() {
		var k key
		var index, score int
		if err := rows.Scan(&k.identity, &k.chapter, &index, &score); err != nil {
			return nil, fmt.Errorf("%w: all scores: %w", ErrReadFailure, err)
		}
		if grouped[k] == nil {
			grouped[k] = make(models.ScoreMap)
		}
		grouped[k][index] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: all scores: %w", ErrReadFailure, err)
	}

	histories := make([]models.ChapterHistory, 0, len(grouped))
	for k, scores := range grouped {
		histories = append(histories, models.ChapterHistory{
			Identity: k.identity,
			Chapter:  k.chapter,
			Scores:   scores,
		})
	}
	// Sorted in Go so byte-wise ordering holds across database collations
	sort.Slice(histories, func(i, j int) bool {
		if histories[i].Identity != histories[j].Identity {
			return histories[i].Identity < histories[j].Identity
		}
		return histories[i].Chapter < histories[j].Chapter
	})

	return histories, nil
}

func userIDFor(q database.DBTX, identity string) (int64, error) {
	var id int64
	err := q.QueryRow("SELECT id FROM users WHERE identity = ?", identity).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownIdentity, identity)
		}
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}
	return id, nil
}
