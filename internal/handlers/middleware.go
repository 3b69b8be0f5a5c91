package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"studycards/internal/models"
	"studycards/internal/security"
	"studycards/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
	AdminContextKey   ContextKey = "admin"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService  *service.AuthService
	studyService *service.StudyService
	csrf         *security.CSRFGenerator
	limiter      *security.RateLimiter
	logger       *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, studyService *service.StudyService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService:  authService,
		studyService: studyService,
		csrf:         csrf,
		limiter:      limiter,
		logger:       logger,
	}
}

// RequireAuth is middleware that requires a valid login session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := security.SessionIDFromRequest(r)
		if sessionID == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
			return
		}

		user, err := m.authService.ValidateSession(sessionID)
		if err != nil {
			m.studyService.End(sessionID)
			http.SetCookie(w, security.CreateDeleteCookie(r))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, SessionContextKey, sessionID)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is middleware that requires a supervisor bearer token, or a
// login session belonging to a user flagged as admin.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var subject string
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
			claims, err := m.authService.ValidateAdminToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
				return
			}
			subject = claims.Subject
		} else if sessionID := security.SessionIDFromRequest(r); sessionID != "" {
			user, err := m.authService.ValidateSession(sessionID)
			if err != nil {
				m.studyService.End(sessionID)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
				return
			}
			if !user.IsAdmin {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: ErrForbidden})
				return
			}
			subject = user.Identity
		} else {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized})
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, subject)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect checks the CSRF header against the login session. It must run inside RequireAuth.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := GetSessionIDFromContext(r.Context())
		if !m.csrf.ValidateRequest(r, sessionID) {
			m.logger.Warn("csrf validation failed", zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusForbidden, errorResponse{Error: ErrForbidden})
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client address
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.logger.Warn("rate limit exceeded", zap.String("client", ip), zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: ErrTooManyRequests})
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionIDFromContext retrieves the login session ID from the request context
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}

// GetAdminFromContext retrieves the supervisor identity from the request context
func GetAdminFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(AdminContextKey).(string)
	return subject
}
