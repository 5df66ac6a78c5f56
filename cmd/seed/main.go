package main

import (
	"fmt"
	"os"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info(".env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "dev", "test", "clean", "recount":
	default:
		fmt.Println("Usage: seed [dev|test|clean|recount]")
		fmt.Println("  dev     - Seed the database with realistic fake content")
		fmt.Println("  test    - Seed the fixed end-to-end fixtures")
		fmt.Println("  clean   - Delete every row (use with caution)")
		fmt.Println("  recount - Rebuild like, comment and follow counters")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.FatalWithFields("Invalid configuration", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.FatalWithFields("Failed to initialize logger", err)
	}
	defer logger.Close()

	if cfg.Environment == "production" && command != "recount" {
		logger.FatalWithFields("Refusing to seed", fmt.Errorf("ENVIRONMENT is production"))
	}

	if err := database.Initialize(cfg.Database, false); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	seeder := seed.NewSeeder(database.DB)
	switch command {
	case "dev":
		err = seeder.SeedDev(seed.DevCounts)
	case "test":
		err = seeder.SeedTest()
	case "clean":
		err = seeder.Clean()
	case "recount":
		err = seeder.RecountCounters()
	}
	if err != nil {
		logger.FatalWithFields("Seeding failed", err)
	}
	logger.Log.Info("Seed command finished: " + command)
}
