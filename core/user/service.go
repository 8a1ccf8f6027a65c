package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/csbssync/portal/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("User not found")
	ErrEmailExists       = errors.New("User already exists")
	ErrInvalidPassword   = errors.New("Invalid password")
	errIncorrectPassword = errors.New("Incorrect current password")
	errEmail1NotUpdated  = errors.New("Email1 was not updated")
)

type (
	Repository interface {
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		// QueryUsersWithEmail1 returns the users having a notification address.
		QueryUsersWithEmail1(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// UpdateUser saves Username, Email1, Role, PasswordHash and UpdatedAt.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	role := nu.Role
	if role == "" {
		role = RoleUser
	}
	now := core.NowFunc()
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if errors.Cause(err) == ErrEmailExists {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}
	return usr, err
}

// Authenticate returns ErrNotFound for unknown emails and ErrInvalidPassword for wrong passwords.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if err := creds.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidPassword
	}
	return usr, nil
}

func (svc *Service) ChangePassword(ctx context.Context, cp ChangePassword) error {
	if err := cp.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.repo.GetUserByEmail(ctx, cp.Email)
	if err != nil {
		return err
	}
	if err = usr.CheckPassword(cp.CurrentPassword); err != nil {
		return core.NewValidationError(errIncorrectPassword)
	}
	if err = usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// ResetPassword sets a new password without checking the current one.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	if err := rp.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.repo.GetUserByEmail(ctx, rp.Email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// AddEmail1 sets the notification address of a User.
func (svc *Service) AddEmail1(ctx context.Context, se SetEmail1) (User, error) {
	return svc.setEmail1(ctx, se, false)
}

// ChangeEmail1 is AddEmail1 failing when the address does not change.
func (svc *Service) ChangeEmail1(ctx context.Context, se SetEmail1) (User, error) {
	return svc.setEmail1(ctx, se, true)
}

func (svc *Service) setEmail1(ctx context.Context, se SetEmail1, mustChange bool) (User, error) {
	if err := se.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByEmail(ctx, se.Email)
	if err != nil {
		return User{}, err
	}
	if usr.Email1 == se.Email1 {
		if mustChange {
			return User{}, core.NewValidationError(errEmail1NotUpdated)
		}
		return usr, nil
	}
	usr.Email1 = se.Email1
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetRole is used by operators to promote or demote a User.
func (svc *Service) SetRole(ctx context.Context, usr User, role string) (User, error) {
	if !isValidRole(role) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: userRoleText})
	}
	if usr.Role == role {
		return usr, nil
	}
	usr.Role = role
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) QueryNotifiable(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsersWithEmail1(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if id = core.CleanString(id); id == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}
