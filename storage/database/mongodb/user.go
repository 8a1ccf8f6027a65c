package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/user"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Email1    string             `bson:"email1,omitempty"`
	Password  string             `bson:"password"` // bcrypt hash
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) user() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		Email1:       d.Email1,
		Role:         d.Role,
		PasswordHash: []byte(d.Password),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{coll: db.collection(usersCollection)}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	d := userDoc{
		Username:  usr.Username,
		Email:     usr.Email,
		Email1:    usr.Email1,
		Password:  string(usr.PasswordHash),
		Role:      usr.Role,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
	}
	oid, err := insertOne(ctx, repo.coll, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, core.NewStorageError("insert users", err)
	}
	d.ID = oid
	return d.user(), nil
}

func (repo *userRepository) query(ctx context.Context, filter bson.M) ([]user.User, error) {
	docs, err := findAll[userDoc](ctx, repo.coll, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.user())
	}
	return users, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.query(ctx, bson.M{})
}

func (repo *userRepository) QueryUsersWithEmail1(ctx context.Context) ([]user.User, error) {
	return repo.query(ctx, bson.M{"email1": bson.M{"$exists": true, "$ne": ""}})
}

func (repo *userRepository) findOne(ctx context.Context, filter bson.M) (user.User, error) {
	var d userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, core.NewStorageError("find users", err)
	}
	return d.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	oid, ok := objectID(usr.ID)
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	set := bson.M{
		"username":  usr.Username,
		"email1":    usr.Email1,
		"role":      usr.Role,
		"updatedAt": usr.UpdatedAt,
	}
	if len(usr.PasswordHash) > 0 {
		set["password"] = string(usr.PasswordHash)
	}

	var d userDoc
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, core.NewStorageError("update users", err)
	}
	return d.user(), nil
}
