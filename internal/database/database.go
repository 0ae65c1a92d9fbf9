package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver, registered as "pgx"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver, registered as "oracle"
	"go.uber.org/zap"

	"perpetua/internal/logger"
)

const (
	DriverOracle = "oracle"
	DriverPgx    = "pgx"
)

func init() {
	// go-ora takes :name placeholders, which sqlx does not know for this driver name.
	sqlx.BindDriver(DriverOracle, sqlx.NAMED)
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverOracle, DriverPgx:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverOracle {
		// Oracle reports unquoted column names in upper case.
		db.Mapper = reflectx.NewMapperTagFunc("db", strings.ToUpper, strings.ToUpper)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	logger.Get().Info("Connected to database", zap.String("driver", driver))
	return db, nil
}
