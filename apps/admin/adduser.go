package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/csbssync/portal/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, uname, email, pwd string, isAdmin bool) (user.User, error) {
	role := user.RoleUser
	if isAdmin {
		role = user.RoleAdmin
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		return cli.usrSvc.Register(ctx, user.NewUser{Username: uname, Email: email, Password: pwd, Role: role})
	}

	// role first: ResetPassword reloads the user
	if _, err = cli.usrSvc.SetRole(ctx, usr, role); err != nil {
		return user.User{}, errors.Wrap(err, "setting role")
	}
	if err = cli.usrSvc.ResetPassword(ctx, user.ResetUserPassword{Email: email, Password: pwd}); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.GetByEmail(ctx, email)
}
