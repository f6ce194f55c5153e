package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/user"
)

// createSuperuser creates a superuser account, or promotes the existing
// account matching the username/email.
func (cli *commandLine) createSuperuser(uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	t := true
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}

		usr = user.User{
			Username:    uname,
			Email:       email,
			IsSuperuser: true,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateProfile(ctx, user.Profile{UserID: usr.ID})
		return err
	}

	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &t, &t)
	return err
}
