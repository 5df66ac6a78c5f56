package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cli"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/seed"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Maintenance against the server's database (reads server env)",
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search indices from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		if cfg.ElasticsearchURL == "" {
			return errors.New("ELASTICSEARCH_URL is not set")
		}
		es, err := search.NewClient(cfg.ElasticsearchURL, nil)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()
		if _, err := es.InitializeIndices(ctx); err != nil {
			return err
		}
		stats, err := search.Reindex(ctx, database.DB, es)
		if err != nil {
			return err
		}
		p := cli.NewPrinter()
		if p.JSON() {
			return p.Print(stats)
		}
		p.Success("Indexed %d posts and %d writings", stats.Posts, stats.Writings)
		if stats.Failed > 0 {
			p.Warn("%d documents failed", stats.Failed)
		}
		return nil
	},
}

var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Recompute like, comment, bookmark and follow counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDatabase(); err != nil {
			return err
		}
		defer database.Close()
		if err := seed.NewSeeder(database.DB).RecountCounters(); err != nil {
			return err
		}
		cli.NewPrinter().Success("Counters recomputed")
		return nil
	},
}

func init() {
	adminCmd.AddCommand(reindexCmd, recountCmd)
}

func openDatabase() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := database.Initialize(cfg.Database, false); err != nil {
		return nil, err
	}
	return cfg, nil
}
