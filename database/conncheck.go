package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"boltnexus/config"
	"boltnexus/utils"
)

// CheckConnection opens a raw database/sql connection outside GORM, pings it and
// reads one row from users. It backs the -check-db flag used when provisioning.
func CheckConnection(ctx context.Context, cfg *config.Config) error {
	log := utils.GetLoggerWith(utils.LoggerNameDatabase)

	driver, dsn, err := rawDSN(cfg)
	if err != nil {
		return err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", driver, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		log.Error("Failed to ping database", zap.String("driver", driver), zap.Error(err))
		return fmt.Errorf("ping %s: %w", driver, err)
	}

	var id int64
	err = conn.QueryRowContext(ctx, "SELECT id FROM users LIMIT 1").Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Info("Database connection test successful, users table is empty", zap.String("driver", driver))
	case err != nil:
		log.Error("Failed to query users table", zap.String("driver", driver), zap.Error(err))
		return fmt.Errorf("query users: %w", err)
	default:
		log.Info("Database connection test successful", zap.String("driver", driver), zap.Int64("first_user_id", id))
	}

	return nil
}

func rawDSN(cfg *config.Config) (driver string, dsn string, err error) {
	switch cfg.DBDriver {
	case "postgres":
		return "postgres", PostgresDSN(cfg), nil
	case "sqlite", "sqlite3":
		return "sqlite3", cfg.DBPath, nil
	}
	return "", "", fmt.Errorf("unsupported DB driver: %s", cfg.DBDriver)
}
