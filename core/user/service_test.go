package user_test

import (
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

func newTestService(t *testing.T) (*user.Service, user.Repository) {
	validate, _ := testutil.NewValidator()
	repo := testutil.OpenRepositories(t).Users
	return user.NewService(repo, validate), repo
}

func validationTags(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	tags := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	usr, err := svc.Register(ctx, user.NewUser{Username: "alice", Email: " Alice@Test.test ", Password: pwd})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "alice@test.test", usr.Email)
	assert.Equal(t, user.RoleUser, usr.Role)
	assert.NoError(t, usr.CheckPassword(pwd))

	tests := []struct {
		name string
		nu   user.NewUser
		want map[string]string
	}{
		{name: "blank username", nu: user.NewUser{Username: " ", Email: "bob@test.test", Password: pwd}, want: map[string]string{"username": "notblank"}},
		{name: "invalid email", nu: user.NewUser{Username: "bob", Email: "bob", Password: pwd}, want: map[string]string{"email": "email"}},
		{name: "invalid role", nu: user.NewUser{Username: "bob", Email: "bob@test.test", Password: pwd, Role: "root"}, want: map[string]string{"role": "userrole"}},
		{name: "short password", nu: user.NewUser{Username: "bob", Email: "bob@test.test", Password: "x7!"}, want: map[string]string{"password": "pwdminlen"}},
		{name: "numeric password", nu: user.NewUser{Username: "bob", Email: "bob@test.test", Password: "1234567890"}, want: map[string]string{"password": "pwdnotallnum"}},
		{name: "password with space", nu: user.NewUser{Username: "bob", Email: "bob@test.test", Password: "Xy7! Qz9#Kp"}, want: map[string]string{"password": "pwdnospace"}},
		{name: "password like username", nu: user.NewUser{Username: "bobbybrown", Email: "x@test.test", Password: "bobbybrown1"}, want: map[string]string{"password": "pwdtoosim"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.nu)
			assert.Equal(t, tt.want, validationTags(t, err))
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, user.NewUser{Username: "alice2", Email: "alice@test.test", Password: pwd})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []core.FieldError{{Field: "email", Error: user.ErrEmailExists.Error()}}, verr.Fields)
	})
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, repo, "alice", "alice@test.test", "", pwd, user.RoleAdmin)

	tests := []struct {
		name    string
		creds   user.Credentials
		wantErr error
	}{
		{name: "unknown email", creds: user.Credentials{Email: "bob@test.test", Password: pwd}, wantErr: user.ErrNotFound},
		{name: "wrong password", creds: user.Credentials{Email: "alice@test.test", Password: "nope"}, wantErr: user.ErrInvalidPassword},
		{name: "valid", creds: user.Credentials{Email: "ALICE@test.test", Password: pwd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, alice.ID, usr.ID)
			assert.True(t, usr.IsAdmin())
		})
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "alice", "alice@test.test", "", pwd, "")
	newPwd := "Mn4$Tr8&Wq"

	err := svc.ChangePassword(ctx, user.ChangePassword{Email: "alice@test.test", CurrentPassword: "nope", NewPassword: newPwd})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	err = svc.ChangePassword(ctx, user.ChangePassword{Email: "alice@test.test", CurrentPassword: pwd, NewPassword: "123456789"})
	assert.Equal(t, map[string]string{"newPassword": "pwdnotallnum"}, validationTags(t, err))

	require.NoError(t, svc.ChangePassword(ctx, user.ChangePassword{Email: "alice@test.test", CurrentPassword: pwd, NewPassword: newPwd}))
	_, err = svc.Authenticate(ctx, user.Credentials{Email: "alice@test.test", Password: newPwd})
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, user.Credentials{Email: "alice@test.test", Password: pwd})
	assert.Equal(t, user.ErrInvalidPassword, err)
}

func TestService_ResetPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "alice", "alice@test.test", "", pwd, "")

	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, user.ResetUserPassword{Email: "bob@test.test", Password: pwd}))
	require.NoError(t, svc.ResetPassword(ctx, user.ResetUserPassword{Email: "alice@test.test", Password: "Mn4$Tr8&Wq"}))
	_, err := svc.Authenticate(ctx, user.Credentials{Email: "alice@test.test", Password: "Mn4$Tr8&Wq"})
	assert.NoError(t, err)
}

func TestService_Email1(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "alice", "alice@test.test", "", pwd, "")
	testutil.CreateUser(t, repo, "bob", "bob@test.test", "", pwd, "")

	notifiable, err := svc.QueryNotifiable(ctx)
	require.NoError(t, err)
	assert.Empty(t, notifiable)

	usr, err := svc.AddEmail1(ctx, user.SetEmail1{Email: "alice@test.test", Email1: "Alice@Notify.test"})
	require.NoError(t, err)
	assert.Equal(t, "alice@notify.test", usr.Email1)

	// adding the same address again is accepted
	_, err = svc.AddEmail1(ctx, user.SetEmail1{Email: "alice@test.test", Email1: "alice@notify.test"})
	assert.NoError(t, err)

	_, err = svc.ChangeEmail1(ctx, user.SetEmail1{Email: "alice@test.test", Email1: "alice@notify.test"})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	usr, err = svc.ChangeEmail1(ctx, user.SetEmail1{Email: "alice@test.test", Email1: "alice@other.test"})
	require.NoError(t, err)
	assert.Equal(t, "alice@other.test", usr.Email1)

	_, err = svc.AddEmail1(ctx, user.SetEmail1{Email: "alice@test.test", Email1: "nope"})
	assert.Equal(t, map[string]string{"email1": "email"}, validationTags(t, err))

	notifiable, err = svc.QueryNotifiable(ctx)
	require.NoError(t, err)
	require.Len(t, notifiable, 1)
	assert.Equal(t, "alice", notifiable[0].Username)
}

func TestService_SetRole(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, repo, "alice", "alice@test.test", "", pwd, "")

	_, err := svc.SetRole(ctx, alice, "root")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	usr, err := svc.SetRole(ctx, alice, user.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin())

	got, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.NoError(t, got.CheckPassword(pwd), "password survives updates")
}
