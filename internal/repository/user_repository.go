package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"perpetua/internal/domain"
	"perpetua/internal/repository/models"
	"perpetua/internal/util"
)

const userColumns = `id, email, username, hashed_password, google_id, weekly_score, current_level, created_at, updated_at`

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:             m.ID,
		Email:          m.Email,
		Username:       m.Username,
		HashedPassword: m.HashedPassword.String,
		GoogleID:       m.GoogleID.String,
		WeeklyScore:    m.WeeklyScore,
		CurrentLevel:   m.CurrentLevel,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		HashedPassword: util.StringToNullString(u.HashedPassword),
		GoogleID:       util.StringToNullString(u.GoogleID),
		WeeklyScore:    u.WeeklyScore,
		CurrentLevel:   u.CurrentLevel,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// CreateUser inserts a new user. An empty ID is filled with a fresh ULID.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = util.NewULID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m := fromDomainUser(user)

	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exec.ExecContext(ctx, query,
		m.ID, m.Email, m.Username, m.HashedPassword, m.GoogleID,
		m.WeeklyScore, m.CurrentLevel, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqlxUserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)

	var m models.User
	if err := exec.GetContext(ctx, &m, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // services decide whether a missing user is an error
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return toDomainUser(&m), nil
}

// GetUserByID returns nil, nil when no user matches.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, "id", userID)
}

func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *sqlxUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "username", username)
}

func (r *sqlxUserRepository) execOnUser(ctx context.Context, op, query string, args ...any) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *sqlxUserRepository) UpdateLevel(ctx context.Context, userID, level string) error {
	return r.execOnUser(ctx, "update level",
		`UPDATE users SET current_level = ?, updated_at = ? WHERE id = ?`,
		level, time.Now(), userID)
}

func (r *sqlxUserRepository) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	return r.execOnUser(ctx, "link google id",
		`UPDATE users SET google_id = ?, updated_at = ? WHERE id = ?`,
		googleID, time.Now(), userID)
}

// IncrementWeeklyScore adds delta in one statement; the database serializes
// concurrent increments on the row.
func (r *sqlxUserRepository) IncrementWeeklyScore(ctx context.Context, userID string, delta int) error {
	return r.execOnUser(ctx, "increment weekly score",
		`UPDATE users SET weekly_score = weekly_score + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now(), userID)
}

func (r *sqlxUserRepository) ListTopByWeeklyScore(ctx context.Context, limit int) ([]*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT ` + userColumns + ` FROM users
		ORDER BY weekly_score DESC, username ASC
		FETCH FIRST ? ROWS ONLY`)

	var rows []models.User
	if err := exec.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list users by weekly score: %w", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, toDomainUser(&rows[i]))
	}
	return users, nil
}
