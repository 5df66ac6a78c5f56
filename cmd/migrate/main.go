package main

import (
	"fmt"
	"os"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info(".env file not found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "down":
		fmt.Println("Rollback is not supported: the schema is managed by GORM AutoMigrate.")
		os.Exit(1)
	default:
		fmt.Println("Usage: migrate [up|down]")
		fmt.Println("  up     - Create or update every table and index")
		fmt.Println("  down   - Not supported")
		os.Exit(1)
	}
}

func runMigrationsUp() {
	cfg, err := config.Load()
	if err != nil {
		logger.FatalWithFields("Invalid configuration", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.FatalWithFields("Failed to initialize logger", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.Database, false); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()

	logger.Log.Info("Running migrations...", zap.String("driver", cfg.Database.Driver))
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Migration failed", err)
	}
	logger.Log.Info("All migrations completed successfully")
}
