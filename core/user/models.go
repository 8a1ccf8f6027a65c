package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/csbssync/portal/core"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var AllRoles = []string{RoleUser, RoleAdmin}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Email1       string    `json:"email1"` // notices are sent here
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,userrole"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	return validate.Struct(nu)
}

type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

type ChangePassword struct {
	Email           string `json:"email" validate:"required"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (cp *ChangePassword) Validate(validate *validator.Validate) error {
	cp.Email = core.CleanString(cp.Email, true /* lower */)
	return validate.Struct(cp)
}

// SetEmail1 adds or changes the notification address of a User.
type SetEmail1 struct {
	Email  string `json:"email" validate:"required"`
	Email1 string `json:"email1" validate:"required,email"`
}

func (se *SetEmail1) Validate(validate *validator.Validate) error {
	se.Email = core.CleanString(se.Email, true /* lower */)
	se.Email1 = core.CleanString(se.Email1, true /* lower */)
	return validate.Struct(se)
}

// ResetUserPassword is used by operators to force a new password.
type ResetUserPassword struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	return validate.Struct(rp)
}
