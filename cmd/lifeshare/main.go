package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lifeshare",
		Usage: "Blood donor directory",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			promoteCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
