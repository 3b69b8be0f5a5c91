package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"studycards/internal/service"
	"studycards/internal/study"
)

type actionResponse struct {
	Session study.Snapshot `json:"session"`
	Warning string         `json:"warning,omitempty"`
}

// StudyHandler exposes study sessions over JSON
type StudyHandler struct {
	studyService *service.StudyService
	logger       *zap.Logger
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(studyService *service.StudyService, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{studyService: studyService, logger: logger}
}

// Chapters lists the available chapters
func (h *StudyHandler) Chapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.studyService.Chapters()
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to list chapters", err)
		return
	}
	if chapters == nil {
		chapters = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"chapters": chapters})
}

// Start begins a session on the chapter in the path, replacing any active one
func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	snap, err := h.studyService.Start(GetSessionIDFromContext(r.Context()), user.Identity, r.PathValue("chapter"))
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Session: snap})
}

// Current returns the active session snapshot
func (h *StudyHandler) Current(w http.ResponseWriter, r *http.Request) {
	session, err := h.studyService.Session(GetSessionIDFromContext(r.Context()))
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Session: session.Snapshot()})
}

func (h *StudyHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.Reveal())
}

// Rate expects {"score": 1..5}
func (h *StudyHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Score *int `json:"score"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Score == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidRequestBody})
		return
	}
	h.apply(w, r, study.Rate(*req.Score))
}

// GoTo expects {"index": n}
func (h *StudyHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Index == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidRequestBody})
		return
	}
	h.apply(w, r, study.GoTo(*req.Index))
}

func (h *StudyHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.Previous())
}

func (h *StudyHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.Skip())
}

func (h *StudyHandler) RequestEnd(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.RequestEnd())
}

func (h *StudyHandler) ConfirmEnd(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.ConfirmEnd())
}

func (h *StudyHandler) CancelEnd(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.CancelEnd())
}

func (h *StudyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, study.Restart())
}

func (h *StudyHandler) apply(w http.ResponseWriter, r *http.Request, action study.Action) {
	out, snap, err := h.studyService.Apply(GetSessionIDFromContext(r.Context()), action)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}

	resp := actionResponse{Session: snap}
	if out.Warning != nil {
		resp.Warning = out.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Report returns the summary of the active session, partial or complete
func (h *StudyHandler) Report(w http.ResponseWriter, r *http.Request) {
	view, err := h.studyService.Report(GetSessionIDFromContext(r.Context()))
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// History lists the caller's stored chapters
func (h *StudyHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	entries, err := h.studyService.History(user.Identity)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to read history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]service.HistoryEntry{"history": entries})
}

type resetResponse struct {
	Chapter       string `json:"chapter"`
	SessionsEnded int    `json:"sessions_ended"`
}

// ResetHistory erases the caller's stored scores for the chapter in the path.
// Study sessions on that chapter are ended and counted in the response.
func (h *StudyHandler) ResetHistory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	chapter := r.PathValue("chapter")
	ended, err := h.studyService.ResetHistory(user.Identity, chapter)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to reset history", err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Chapter: chapter, SessionsEnded: ended})
}
