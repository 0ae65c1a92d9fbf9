package domain

import (
	"context"
	"time"
)

// DefaultLevel is assigned to newly registered users.
const DefaultLevel = "A1"

var validLevels = map[string]bool{
	"A1": true, "A2": true,
	"B1": true, "B2": true,
	"C1": true, "C2": true,
}

// IsValidLevel reports whether level is a CEFR proficiency tag.
func IsValidLevel(level string) bool {
	return validLevels[level]
}

// User represents a domain user object
type User struct {
	ID             string
	Email          string
	Username       string
	HashedPassword string
	GoogleID       string
	WeeklyScore    int
	CurrentLevel   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates a new User instance
func NewUser(email, username string) *User {
	now := time.Now()
	return &User{
		Email:        email,
		Username:     username,
		CurrentLevel: DefaultLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates the user
func (u *User) Validate() error {
	if u.Email == "" {
		return NewValidationError("email is required")
	}
	if u.Username == "" {
		return NewValidationError("username is required")
	}
	if !IsValidLevel(u.CurrentLevel) {
		return NewValidationError("current_level must be a CEFR level (A1-C2)")
	}
	return nil
}

// UserMistake is one persisted wrong answer. Seq orders rows by insertion.
type UserMistake struct {
	ID            string
	Seq           int64
	UserID        string
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	CreatedAt     time.Time
}

// LeaderboardEntry is one row of the weekly ranking.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	WeeklyScore int    `json:"weekly_score"`
	Level       string `json:"level"`
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateLevel(ctx context.Context, userID, level string) error
	LinkGoogleID(ctx context.Context, userID, googleID string) error
	// IncrementWeeklyScore adds delta in a single statement so concurrent evaluations do not lose updates.
	IncrementWeeklyScore(ctx context.Context, userID string, delta int) error
	ListTopByWeeklyScore(ctx context.Context, limit int) ([]*User, error)
}

// MistakeLedger is the bounded-retention store of a user's incorrect answers.
type MistakeLedger interface {
	Record(ctx context.Context, userID string, wrong WrongAnswer) (string, error)
	// Prune deletes the oldest rows beyond keepLimit and returns how many were deleted.
	Prune(ctx context.Context, userID string, keepLimit int) (int64, error)
	// Recent returns up to limit mistakes, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]UserMistake, error)
}

// TransactionManager runs fn inside a transaction carried by the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
