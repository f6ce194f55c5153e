package main

import (
	"github.com/pressly/goose/v3"

	appfs "github.com/kursly/backend/fs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(command string, args []string) error {
	goose.SetBaseFS(appfs.FS)
	return gooseRunFunc(command, cli.db, "migrations", args...)
}
