package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"boltnexus/config"
	"boltnexus/utils"
)

// Open connects to the configured store. The returned handle is created once at
// startup, shared by every request and released with Close on shutdown.
func Open(cfg *config.Config) (*gorm.DB, error) {
	log := utils.GetLoggerWith(utils.LoggerNameDatabase)

	level := logger.Info
	if cfg.IsProduction() {
		level = logger.Warn
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	switch cfg.DBDriver {
	case "postgres":
		log.Info("Connecting to PostgreSQL",
			zap.String("host", cfg.DBHost),
			zap.String("port", cfg.DBPort),
			zap.String("db", cfg.DBName),
		)

		db, err := gorm.Open(postgres.Open(PostgresDSN(cfg)), gormConfig)
		if err != nil {
			log.Error("Failed to connect to PostgreSQL", zap.Error(err))
			return nil, err
		}
		log.Info("PostgreSQL connection successful")
		return db, nil

	case "sqlite", "sqlite3":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), os.ModePerm); err != nil {
			log.Error("Failed to create SQLite folder", zap.Error(err))
			return nil, err
		}

		db, err := openSQLite(cfg.DBPath, gormConfig)
		if err != nil {
			log.Error("Failed to connect to SQLite", zap.Error(err))
			return nil, err
		}
		log.Info("SQLite connection successful", zap.String("path", cfg.DBPath))
		return db, nil
	}

	return nil, fmt.Errorf("unsupported DB driver: %s", cfg.DBDriver)
}

// OpenMemory opens a private, migrated in-memory SQLite store. name must be
// unique per store; tests use it to get an isolated database.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(dsn string, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// single writer; also keeps the pragma below on the only connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return db, nil
}

// PostgresDSN prefers DATABASE_URL and otherwise builds a key/value DSN
func PostgresDSN(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)
}

// Ping checks the store is reachable
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
