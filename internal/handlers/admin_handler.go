package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studycards/internal/service"
)

// AdminHandler serves the read-only supervisor endpoints
type AdminHandler struct {
	adminService  *service.AdminService
	backupService *service.BackupService
	logger        *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService, backupService *service.BackupService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		backupService: backupService,
		logger:        logger,
	}
}

// Overview lists every user's chapters with count and average
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.adminService.Overview()
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to build overview", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]service.UserOverview{"users": overview})
}

// ExportDatabase streams the backup document as a download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=studycards_backup_%s.json", timestamp))

	if err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to export database", "error exporting database", err)
		return
	}

	h.logger.Info("database exported", zap.String("by", GetAdminFromContext(r.Context())))
}
