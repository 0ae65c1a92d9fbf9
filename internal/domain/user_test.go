package domain

import "testing"

func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"A1", "A2", "B1", "B2", "C1", "C2"} {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false", level)
		}
	}
	for _, level := range []string{"", "a1", "C3", "B", "native"} {
		if IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = true", level)
		}
	}
}

func TestNewUser(t *testing.T) {
	u := NewUser("ayse@example.com", "ayse")
	if u.CurrentLevel != DefaultLevel {
		t.Errorf("CurrentLevel = %q, want %q", u.CurrentLevel, DefaultLevel)
	}
	if u.WeeklyScore != 0 {
		t.Errorf("WeeklyScore = %d, want 0", u.WeeklyScore)
	}
	if u.CreatedAt.IsZero() || !u.CreatedAt.Equal(u.UpdatedAt) {
		t.Error("expected matching non-zero timestamps")
	}
	if err := u.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name string
		user User
	}{
		{"missing email", User{Username: "ayse", CurrentLevel: "A1"}},
		{"missing username", User{Email: "a@b.c", CurrentLevel: "A1"}},
		{"bad level", User{Email: "a@b.c", Username: "ayse", CurrentLevel: "Z9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			de, ok := err.(*DomainError)
			if !ok || de.Code != CodeValidation {
				t.Errorf("error = %v, want a VALIDATION_ERROR domain error", err)
			}
		})
	}
}
