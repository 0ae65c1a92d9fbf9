package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Order(t *testing.T) {
	up, err := migrationFiles("up")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_users.up.sql", "000002_create_user_mistakes.up.sql"}, up)

	down, err := migrationFiles("down")
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_create_user_mistakes.down.sql", "000001_create_users.down.sql"}, down)
}

func TestSplitStatements(t *testing.T) {
	content := "-- comment\nCREATE TABLE a (\n  id INTEGER\n);\n\nCREATE INDEX idx ON a (id);\n"
	stmts := splitStatements(content)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (\n  id INTEGER\n)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx ON a (id)", stmts[1])
}

func TestRunOracle_SkipsExistingObjects(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectExec(`CREATE TABLE users`).WillReturnError(errors.New("ORA-00955: name is already used by an existing object"))
	mock.ExpectExec(`CREATE INDEX idx_users_weekly_score`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE user_mistakes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX idx_user_mistakes_user_seq`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, runOracle(context.Background(), db, "up"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunOracle_FailsOnOtherErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectExec(`CREATE TABLE users`).WillReturnError(errors.New("ORA-01031: insufficient privileges"))

	err = runOracle(context.Background(), db, "up")
	assert.ErrorContains(t, err, "000001_create_users.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "file::memory:")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestVersion_OracleUnsupported(t *testing.T) {
	_, _, err := Version(nil, DriverOracle)
	assert.ErrorIs(t, err, ErrVersionUnsupported)
}
