package main

import (
	"context"

	"github.com/csbssync/portal/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	return cli.usrSvc.ResetPassword(ctx, user.ResetUserPassword{Email: email, Password: pwd})
}
