package handlers

import "net/http"

// Handlers groups everything RegisterRoutes wires
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Study      *StudyHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts the JSON API on mux
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	m := h.Middleware

	// Public routes
	mux.HandleFunc("GET /api/chapters", h.Study.Chapters)
	mux.HandleFunc("POST /api/register", m.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("POST /api/logout", h.Auth.Logout)

	// Study routes
	mux.HandleFunc("POST /api/study/{chapter}/start", m.RequireAuth(m.CSRFProtect(h.Study.Start)))
	mux.HandleFunc("GET /api/study", m.RequireAuth(h.Study.Current))
	mux.HandleFunc("POST /api/study/reveal", m.RequireAuth(m.CSRFProtect(h.Study.Reveal)))
	mux.HandleFunc("POST /api/study/rate", m.RequireAuth(m.CSRFProtect(h.Study.Rate)))
	mux.HandleFunc("POST /api/study/goto", m.RequireAuth(m.CSRFProtect(h.Study.GoTo)))
	mux.HandleFunc("POST /api/study/previous", m.RequireAuth(m.CSRFProtect(h.Study.Previous)))
	mux.HandleFunc("POST /api/study/skip", m.RequireAuth(m.CSRFProtect(h.Study.Skip)))
	mux.HandleFunc("POST /api/study/end", m.RequireAuth(m.CSRFProtect(h.Study.RequestEnd)))
	mux.HandleFunc("POST /api/study/end/confirm", m.RequireAuth(m.CSRFProtect(h.Study.ConfirmEnd)))
	mux.HandleFunc("POST /api/study/end/cancel", m.RequireAuth(m.CSRFProtect(h.Study.CancelEnd)))
	mux.HandleFunc("POST /api/study/restart", m.RequireAuth(m.CSRFProtect(h.Study.Restart)))
	mux.HandleFunc("GET /api/study/report", m.RequireAuth(h.Study.Report))

	// History routes
	mux.HandleFunc("GET /api/history", m.RequireAuth(h.Study.History))
	mux.HandleFunc("DELETE /api/history/{chapter}", m.RequireAuth(m.CSRFProtect(h.Study.ResetHistory)))

	// Admin routes
	mux.HandleFunc("POST /api/admin/login", m.RateLimit(h.Auth.AdminLogin))
	mux.HandleFunc("GET /api/admin/overview", m.RequireAdmin(h.Admin.Overview))
	mux.HandleFunc("GET /api/admin/backup", m.RequireAdmin(h.Admin.ExportDatabase))
}
