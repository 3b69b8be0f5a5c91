package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"studycards/internal/database"
	"studycards/internal/models"
)

// ErrIdentityTaken is returned when an identity is already registered
var ErrIdentityTaken = errors.New("identity already registered")

// UserRepository handles database operations for users and sessions
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, identity, password_hash, is_admin, created_at, updated_at"

// CreateUser inserts a new user. The insert is add-if-absent: an existing
// identity yields ErrIdentityTaken and leaves the stored record untouched.
func (r *UserRepository) CreateUser(identity, passwordHash string) (*models.User, error) {
	var user *models.User
	err := r.db.WithinTx(func(tx *database.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE identity = ?", identity).Scan(&count); err != nil {
			return fmt.Errorf("failed to check identity: %w", err)
		}
		if count > 0 {
			return ErrIdentityTaken
		}

		now := time.Now().UTC()
		id, err := tx.ExecReturningID(`
			INSERT INTO users (identity, password_hash, is_admin, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, identity, passwordHash, false, now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrIdentityTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		user = &models.User{
			ID:           id,
			Identity:     identity,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByIdentity retrieves a user by identity (exact, case-sensitive match)
func (r *UserRepository) GetUserByIdentity(identity string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE identity = ?", identity))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetAllUsers retrieves all users ordered by identity
func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY identity")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// SetAdmin updates a user's administrative flag
func (r *UserRepository) SetAdmin(id int64, isAdmin bool) error {
	query := "UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, isAdmin, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, sessionID, userID, expiresAt.UTC(), now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and returns their ids
func (r *UserRepository) DeleteExpiredSessions() ([]string, error) {
	cutoff := time.Now().UTC()
	var ids []string
	err := r.db.WithinTx(func(tx *database.Tx) error {
		rows, err := tx.Query("SELECT id FROM sessions WHERE expires_at < ?", cutoff)
		if err != nil {
			return fmt.Errorf("failed to list expired sessions: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan session id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("failed to list expired sessions: %w", err)
		}
		rows.Close()

		if _, err := tx.Exec("DELETE FROM sessions WHERE expires_at < ?", cutoff); err != nil {
			return fmt.Errorf("failed to delete expired sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Identity,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// isUniqueViolation recognises unique-constraint errors from the supported drivers
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "SQLSTATE 23505") || // pgx
		strings.Contains(msg, "Duplicate entry") // mysql
}
