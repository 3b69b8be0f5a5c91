package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "testPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Errorf("HashPassword() = %q, want a bcrypt hash", hash)
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "mySecurePassword"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "correct password", password: password, hash: hash, want: true},
		{name: "incorrect password", password: "wrongPassword", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "empty hash", password: password, hash: "", want: false},
		{name: "garbage hash", password: password, hash: "not-a-hash", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.IssueAdmin("proctor")
	if err != nil {
		t.Fatalf("IssueAdmin() error = %v", err)
	}

	claims, err := issuer.ParseAdmin(token)
	if err != nil {
		t.Fatalf("ParseAdmin() error = %v", err)
	}
	if claims.Subject != "proctor" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}

	tests := []struct {
		name  string
		token string
		with  *TokenIssuer
	}{
		{name: "wrong secret", token: token, with: NewTokenIssuer("other", time.Hour)},
		{name: "garbage", token: "abc.def.ghi", with: issuer},
		{name: "empty", token: "", with: issuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.with.ParseAdmin(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseAdmin() error = %v, want ErrInvalidToken", err)
			}
		})
	}

	expired, err := NewTokenIssuer("secret", -time.Minute).IssueAdmin("proctor")
	if err != nil {
		t.Fatalf("IssueAdmin() error = %v", err)
	}
	if _, err := issuer.ParseAdmin(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestCSRF(t *testing.T) {
	gen := NewCSRFGenerator("secret")

	token, err := gen.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !gen.ValidateToken("session-1", token) {
		t.Error("token should validate for its own session")
	}
	if gen.ValidateToken("session-2", token) {
		t.Error("token should not validate for another session")
	}
	if _, err := gen.GenerateToken(""); err == nil {
		t.Error("GenerateToken(\"\") should fail")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/study/reveal", nil)
	req.Header.Set(CSRFHeader, token)
	if !gen.ValidateRequest(req, "session-1") {
		t.Error("ValidateRequest() = false, want true")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("another client has its own bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.3"}, remote: "1.1.1.1:80", want: "10.0.0.3"},
		{name: "remote addr", remote: "192.168.1.5:5555", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if SessionIDFromRequest(req) != "" {
		t.Error("no cookie should yield an empty session ID")
	}

	cookie := CreateSessionCookie(req, "abc", time.Now().Add(time.Hour))
	if cookie.Secure {
		t.Error("plain HTTP request should not get a Secure cookie")
	}
	req.AddCookie(cookie)
	if got := SessionIDFromRequest(req); got != "abc" {
		t.Errorf("SessionIDFromRequest() = %q, want abc", got)
	}

	secure := httptest.NewRequest(http.MethodGet, "/", nil)
	secure.Header.Set("X-Forwarded-Proto", "https")
	if !CreateDeleteCookie(secure).Secure {
		t.Error("HTTPS request should get a Secure cookie")
	}

	if id := GenerateSessionID(); len(id) != 36 || id == GenerateSessionID() {
		t.Errorf("GenerateSessionID() = %q, want unique UUIDs", id)
	}
}
