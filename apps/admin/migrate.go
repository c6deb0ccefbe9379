package main

import (
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/mahudhurio/apps"
	"github.com/trezcool/mahudhurio/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return apps.NewArgumentError("migrate needs the " + apps.SourceDatabase + " attendance source")
	}
	if err := database.SetUpMigrations(cli.conf.Database.Engine); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, database.MigrationsDir, arguments...)
}
