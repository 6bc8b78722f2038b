package main

import (
	"context"
	"fmt"

	"lifeshare/internal/db"
	"lifeshare/internal/store"
	"lifeshare/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// promoteCommand bootstraps the first admin; afterwards admins promote each
// other from the admin page.
var promoteCommand = &cli.Command{
	Name:  "promote",
	Usage: "Give a user the admin role",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "user-id",
			Usage:    "Directory id (Cognito sub) of the user",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		userID := c.String("user-id")
		role := types.RoleAdmin

		if err := store.NewUserRepository(pool).Update(ctx, userID, types.ProfileUpdate{Role: &role}); err != nil {
			return fmt.Errorf("failed to promote %s: %w", userID, err)
		}

		logrus.WithField("user_id", userID).Info("User promoted to admin")
		return nil
	},
}
