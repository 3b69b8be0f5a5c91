package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"studycards/internal/database"
	"studycards/internal/models"
	"studycards/internal/repository"
	"studycards/internal/validation"
)

const backupVersion = "1.0"

// BackupData is the human-inspectable export document. History is keyed
// identity -> chapter -> {"index": score}.
type BackupData struct {
	Version      string                                `json:"version"`
	ExportedAt   time.Time                             `json:"exported_at"`
	DatabaseType string                                `json:"database_type"`
	Users        []UserBackup                          `json:"users"`
	History      map[string]map[string]models.ScoreMap `json:"history"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	Identity     string    `json:"identity"`
	PasswordHash string    `json:"password_hash,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// ImportStats counts what an import wrote
type ImportStats struct {
	UsersCreated int
	UsersKept    int
	UsersSkipped int
	Chapters     int
}

// BackupService handles export and import of users and score history
type BackupService struct {
	db        *database.DB
	adminUser string
	userRepo  *repository.UserRepository
	scoreRepo *repository.ScoreRepository
	logger    *zap.Logger
}

// NewBackupService creates a new backup service. adminUser is the reserved
// supervisor identity, which imports never create.
func NewBackupService(db *database.DB, adminUser string, logger *zap.Logger) *BackupService {
	return &BackupService{
		db:        db,
		adminUser: adminUser,
		userRepo:  repository.NewUserRepository(db),
		scoreRepo: repository.NewScoreRepository(db),
		logger:    logger,
	}
}

// Export writes a complete backup to outputPath
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	s.logger.Info("database exported", zap.String("path", outputPath))
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.snapshot()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("backup written",
		zap.Int("users", len(backup.Users)),
		zap.Int("identities_with_history", len(backup.History)),
	)
	return nil
}

func (s *BackupService) snapshot() (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
		Users:        []UserBackup{},
		History:      make(map[string]map[string]models.ScoreMap),
	}

	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			Identity:     u.Identity,
			PasswordHash: u.PasswordHash,
			IsAdmin:      u.IsAdmin,
			CreatedAt:    u.CreatedAt,
		})
	}

	histories, err := s.scoreRepo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to export history: %w", err)
	}
	for _, h := range histories {
		if backup.History[h.Identity] == nil {
			backup.History[h.Identity] = make(map[string]models.ScoreMap)
		}
		backup.History[h.Identity][h.Chapter] = h.Scores
	}

	return backup, nil
}

// Import restores a backup from inputPath
func (s *BackupService) Import(inputPath string) (ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader merges a backup into the database. Existing users are
// kept as they are; each imported chapter overwrites the stored one.
// Identities that only appear in history are created without a credential.
// Records for the reserved supervisor identity are skipped.
func (s *BackupService) ImportFromReader(reader io.Reader) (ImportStats, error) {
	var stats ImportStats

	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return stats, fmt.Errorf("failed to decode backup: %w", err)
	}
	s.logger.Info("importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
	)

	for _, u := range backup.Users {
		if s.reserved(u.Identity) {
			stats.UsersSkipped++
			continue
		}
		created, err := s.ensureUser(u.Identity, u.PasswordHash, u.IsAdmin)
		if err != nil {
			return stats, err
		}
		if created {
			stats.UsersCreated++
		} else {
			stats.UsersKept++
		}
	}

	for identity, chapters := range backup.History {
		if s.reserved(identity) {
			continue
		}
		created, err := s.ensureUser(identity, "", false)
		if err != nil {
			return stats, err
		}
		if created {
			stats.UsersCreated++
		}

		for chapter, scores := range chapters {
			if err := s.scoreRepo.Put(identity, chapter, scores); err != nil {
				return stats, fmt.Errorf("failed to import %s/%s: %w", identity, chapter, err)
			}
			stats.Chapters++
		}
	}

	s.logger.Info("import completed",
		zap.Int("users_created", stats.UsersCreated),
		zap.Int("users_kept", stats.UsersKept),
		zap.Int("users_skipped", stats.UsersSkipped),
		zap.Int("chapters", stats.Chapters),
	)
	return stats, nil
}

func (s *BackupService) reserved(identity string) bool {
	if s.adminUser == "" || identity != s.adminUser {
		return false
	}
	s.logger.Warn("skipping reserved supervisor identity in backup", zap.String("identity", identity))
	return true
}

func (s *BackupService) ensureUser(identity, passwordHash string, isAdmin bool) (bool, error) {
	if err := validation.ValidateIdentity(identity); err != nil {
		return false, fmt.Errorf("failed to import user %q: %w", identity, err)
	}

	existing, err := s.userRepo.GetUserByIdentity(identity)
	if err != nil {
		return false, fmt.Errorf("failed to check user %q: %w", identity, err)
	}
	if existing != nil {
		return false, nil
	}

	user, err := s.userRepo.CreateUser(identity, passwordHash)
	if err != nil {
		return false, fmt.Errorf("failed to import user %q: %w", identity, err)
	}
	if isAdmin {
		if err := s.userRepo.SetAdmin(user.ID, true); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ClearAll deletes every user, session and score
func (s *BackupService) ClearAll() error {
	// Delete in reverse order of dependencies
	tables := []string{"chapter_scores", "sessions", "users"}

	return s.db.WithinTx(func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			s.logger.Info("cleared table", zap.String("table", table))
		}
		return nil
	})
}
