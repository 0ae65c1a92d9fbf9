package models

import (
	"database/sql"
	"time"
)

// User represents a row of the users table.
type User struct {
	ID             string         `db:"id"`              // ULID
	Email          string         `db:"email"`
	Username       string         `db:"username"`
	HashedPassword sql.NullString `db:"hashed_password"` // NULL for Google-only accounts
	GoogleID       sql.NullString `db:"google_id"`
	WeeklyScore    int            `db:"weekly_score"`
	CurrentLevel   string         `db:"current_level"` // CEFR tag
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// UserMistake represents a row of the user_mistakes table.
type UserMistake struct {
	ID            string         `db:"id"`  // ULID
	Seq           int64          `db:"seq"` // identity column, insertion order
	UserID        string         `db:"user_id"`
	QuestionText  string         `db:"question_text"`
	UserAnswer    sql.NullString `db:"user_answer"` // NULL for a skipped question
	CorrectAnswer string         `db:"correct_answer"`
	CreatedAt     time.Time      `db:"created_at"`
}
