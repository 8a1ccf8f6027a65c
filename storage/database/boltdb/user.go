package boltdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
)

// userDoc keeps the password hash, which user.User never serializes.
type userDoc struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Email1       string    `json:"email1,omitempty"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"password"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		Email1:       usr.Email1,
		Role:         usr.Role,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

func (d userDoc) user() user.User {
	return user.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		Email1:       d.Email1,
		Role:         d.Role,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type userRepository struct {
	db    *DB
	users collection[userDoc]
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{
		db:    db,
		users: collection[userDoc]{db: db, bucket: usersBucket, notFound: user.ErrNotFound},
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	usr.ID = newID()
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		idx := tx.Bucket(usersByEmailBucket)
		if idx.Get([]byte(usr.Email)) != nil {
			return user.ErrEmailExists
		}
		if _, err := putRecord(tx, usersBucket, usr.ID, 0, newUserDoc(usr)); err != nil {
			return err
		}
		return idx.Put([]byte(usr.Email), []byte(usr.ID))
	})
	if errors.Cause(err) == user.ErrEmailExists {
		return user.User{}, user.ErrEmailExists
	}
	if err != nil {
		return user.User{}, core.NewStorageError("insert users", err)
	}
	return usr, nil
}

func (repo *userRepository) query(ctx context.Context, keep func(userDoc) bool) ([]user.User, error) {
	docs, err := repo.users.all(ctx, func(a, b userDoc) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		if keep == nil || keep(d) {
			users = append(users, d.user())
		}
	}
	return users, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.query(ctx, nil)
}

func (repo *userRepository) QueryUsersWithEmail1(ctx context.Context) ([]user.User, error) {
	return repo.query(ctx, func(d userDoc) bool { return d.Email1 != "" })
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	d, _, err := repo.users.get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	return d.user(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	var id []byte
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(usersByEmailBucket).Get([]byte(email)); v != nil {
			id = append(id, v...)
		}
		return nil
	})
	if err != nil {
		return user.User{}, core.NewStorageError("get users_by_email", err)
	}
	if id == nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, string(id))
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	d, err := repo.users.modify(ctx, usr.ID, func(d *userDoc) error {
		d.Username = usr.Username
		d.Email1 = usr.Email1
		d.Role = usr.Role
		if len(usr.PasswordHash) > 0 {
			d.PasswordHash = usr.PasswordHash
		}
		d.UpdatedAt = usr.UpdatedAt
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return d.user(), nil
}
