package main

import (
	"context"
	"time"

	"github.com/kursly/backend/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil, nil)
	return err
}
