package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
	testutil "github.com/csbssync/portal/tests"
)

const pwd = "Xy7!Qz9#Kp"

func setup(t *testing.T) *commandLine {
	validate, _ := testutil.NewValidator()
	repos := testutil.OpenRepositories(t)
	return &commandLine{
		conf:   core.NewTestConfig(),
		repos:  repos,
		usrSvc: user.NewService(repos.Users, validate),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser: no email", args: []string{"adduser", "-username", "alice"}, pwd: pwd, wantErr: errHelp},
		{name: "adduser: no password", args: []string{"adduser", "-username", "alice", "-email", "alice@test.test"}, wantErr: errHelp},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword: no password", args: []string{"resetpassword", "-email", "alice@test.test"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	mockPassword(t, pwd)
	require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "alice", "-email", "Alice@Test.test"}))

	usr, err := cli.usrSvc.GetByEmail(ctx, "alice@test.test")
	require.NoError(t, err)
	assert.Equal(t, "alice", usr.Username)
	assert.Equal(t, user.RoleUser, usr.Role)
	assert.NoError(t, usr.CheckPassword(pwd))

	// existing user: promoted and password replaced
	newPwd := "Mn4$Tr8&Wq"
	mockPassword(t, newPwd)
	require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "alice", "-email", "alice@test.test", "-admin"}))

	usr, err = cli.usrSvc.GetByEmail(ctx, "alice@test.test")
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword(newPwd))

	users, err := cli.usrSvc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	mockPassword(t, "12345678")
	err = cli.run([]string{"admin", "adduser", "-username", "bob", "-email", "bob@test.test"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.repos.Users, "alice", "alice@test.test", "", pwd, "")

	tests := []cliTest{
		{name: "user not found", args: []string{"resetpassword", "-email", "bob@test.test"}, pwd: pwd, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: "Mn4$Tr8&Wq"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			refreshedUsr, err := cli.usrSvc.GetByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(tt.pwd))
		})
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli := setup(t)
	assert.NoError(t, cli.run([]string{"admin", "ensureindexes"}))
}
