package database

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

var memoryNamePattern = regexp.MustCompile(`[^A-Za-z0-9_]`)

func gormConfig(verbose bool) *gorm.Config {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Initialize opens the configured database and stores it in DB.
func Initialize(cfg config.DatabaseConfig, verbose bool) error {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath+"?_foreign_keys=on&_busy_timeout=5000"), gormConfig(verbose))
	default:
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig(verbose))
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	DB = db
	logger.Log.Info("Database connected", zap.String("driver", cfg.Driver))
	return nil
}

// OpenInMemory opens a private in-memory SQLite database. Each name gets its
// own database, shared by every connection of the returned pool.
func OpenInMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", memoryNamePattern.ReplaceAllString(name, "_"))
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(false))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate runs auto-migration for all models on DB.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateDB(DB)
}

// MigrateDB migrates the schema of db.
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	logger.Log.Info("Database migrations completed")
	return nil
}

// createIndexes adds indexes that gorm tags cannot express. The statements
// are valid on both Postgres and SQLite.
func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_writings_status_published ON writings (status, published_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_follows_following ON follows (following_id, created_at DESC)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// EnableTracing registers the OpenTelemetry GORM plugin on DB.
func EnableTracing() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Use(telemetry.GORMTracingPlugin())
}
