package service

import (
	"fmt"

	"studycards/internal/report"
	"studycards/internal/repository"
)

// ChapterOverview is one chapter of one user as the supervisor sees it
type ChapterOverview struct {
	Chapter string  `json:"chapter"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// UserOverview lists a user's chapters. No credential data is included.
type UserOverview struct {
	Identity string            `json:"identity"`
	Chapters []ChapterOverview `json:"chapters"`
}

// AdminService is the read-only supervisor view over all users
type AdminService struct {
	userRepo  *repository.UserRepository
	scoreRepo *repository.ScoreRepository
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo *repository.UserRepository, scoreRepo *repository.ScoreRepository) *AdminService {
	return &AdminService{userRepo: userRepo, scoreRepo: scoreRepo}
}

// Overview reports (chapter, count, average) for every user, ordered by
// identity then chapter. Users with no history appear with no chapters.
func (s *AdminService) Overview() ([]UserOverview, error) {
	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	histories, err := s.scoreRepo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}

	byIdentity := make(map[string][]ChapterOverview, len(users))
	for _, h := range histories {
		r := report.Summarize(h.Scores, len(h.Scores))
		byIdentity[h.Identity] = append(byIdentity[h.Identity], ChapterOverview{
			Chapter: h.Chapter,
			Count:   r.ScoredCount,
			Average: r.Average,
		})
	}

	overview := make([]UserOverview, 0, len(users))
	for _, u := range users {
		chapters := byIdentity[u.Identity]
		if chapters == nil {
			chapters = []ChapterOverview{}
		}
		overview = append(overview, UserOverview{Identity: u.Identity, Chapters: chapters})
	}
	return overview, nil
}
