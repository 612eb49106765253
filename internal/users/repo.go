package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already registered")
)

// Store is what the auth layer needs from user persistence.
type Store interface {
	Insert(ctx context.Context, u *User) error
	FindByName(ctx context.Context, userName string) (*User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
}

type Repo struct {
	coll *mongo.Collection
}

var _ Store = (*Repo)(nil)

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique userName index signup relies on.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Insert creates a new user. A userName collision comes back as
// ErrUsernameTaken so callers can tell it apart from a storage failure.
func (r *Repo) Insert(ctx context.Context, u *User) error {
	u.ID = primitive.NewObjectID()

	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByName retrieves a user by their unique userName.
func (r *Repo) FindByName(ctx context.Context, userName string) (*User, error) {
	var user User
	err := r.coll.FindOne(ctx, bson.M{"userName": userName}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userName, err)
	}
	return &user, nil
}

// FindByID retrieves a user by their ID.
func (r *Repo) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var user User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id.Hex(), err)
	}
	return &user, nil
}
