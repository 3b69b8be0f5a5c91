package models

import (
	"reflect"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestUserHasCredential(t *testing.T) {
	if (&User{Identity: "alice"}).HasCredential() {
		t.Error("identity-only user should not report a credential")
	}
	if !(&User{Identity: "bob", PasswordHash: "$2a$10$x"}).HasCredential() {
		t.Error("user with a password hash should report a credential")
	}
}

func TestValidScore(t *testing.T) {
	tests := []struct {
		score int
		want  bool
	}{
		{0, false},
		{1, true},
		{3, true},
		{5, true},
		{6, false},
		{-1, false},
	}

	for _, tt := range tests {
		if got := ValidScore(tt.score); got != tt.want {
			t.Errorf("ValidScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestScoreMapClone(t *testing.T) {
	original := ScoreMap{0: 4, 2: 1}
	cloned := original.Clone()

	if !cloned.Equal(original) {
		t.Fatalf("clone = %v, want %v", cloned, original)
	}

	cloned[1] = 5
	if _, ok := original[1]; ok {
		t.Error("mutating the clone changed the original")
	}
}

func TestScoreMapIndicesAndUnrated(t *testing.T) {
	scores := ScoreMap{3: 2, 0: 5, 1: 4}

	if got, want := scores.Indices(), []int{0, 1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Indices() = %v, want %v", got, want)
	}

	tests := []struct {
		name  string
		total int
		want  []int
	}{
		{name: "gaps", total: 5, want: []int{2, 4}},
		{name: "all rated", total: 2, want: nil},
		{name: "empty bank", total: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scores.Unrated(tt.total); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unrated(%d) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func TestScoreMapEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b ScoreMap
		want bool
	}{
		{name: "both empty", a: ScoreMap{}, b: nil, want: true},
		{name: "same", a: ScoreMap{1: 2}, b: ScoreMap{1: 2}, want: true},
		{name: "different value", a: ScoreMap{1: 2}, b: ScoreMap{1: 3}, want: false},
		{name: "different key", a: ScoreMap{1: 2}, b: ScoreMap{2: 2}, want: false},
		{name: "different size", a: ScoreMap{1: 2}, b: ScoreMap{1: 2, 2: 2}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
