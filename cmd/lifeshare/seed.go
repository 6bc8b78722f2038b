package main

import (
	"context"
	"fmt"
	"time"

	"lifeshare/internal/db"
	"lifeshare/internal/seed"
	"lifeshare/internal/store"
	"lifeshare/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo donors and the default site config",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the seed data without touching the database",
		},
	},
	Action: func(c *cli.Context) error {
		now := time.Now()

		if c.Bool("dry-run") {
			printer := pp.New()
			printer.SetColoringEnabled(false)
			printer.Println(seed.Donors(now))
			printer.Println(types.DefaultSiteConfig())
			return nil
		}

		cfg, err := loadConfig(false)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		// Connect to database
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		n, err := seed.SeedDonors(ctx, store.NewUserRepository(pool), now)
		if err != nil {
			return fmt.Errorf("failed to seed donors: %w", err)
		}
		logrus.WithField("donors", n).Info("Donors seeded successfully")

		if _, err := seed.SeedSiteConfig(ctx, store.NewSiteConfigRepository(pool)); err != nil {
			return err
		}
		logrus.Info("Site config seeded successfully")

		return nil
	},
}
