package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

// userDocument is the stored shape of a user.
// The password field only ever holds a hash.
type userDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
	Tokens   []model.Token      `bson:"tokens"`
}

func (d *userDocument) toModel() *model.User {
	tokens := d.Tokens
	if tokens == nil {
		tokens = []model.Token{}
	}
	return &model.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		Tokens:       tokens,
		CreatedAt:    d.ID.Timestamp(),
	}
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	tokens := user.Tokens
	if tokens == nil {
		tokens = []model.Token{}
	}

	doc := userDocument{
		ID:       id,
		Email:    user.Email,
		Password: user.PasswordHash,
		Tokens:   tokens,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// GetUserByToken retrieves a user that still holds the token.
func (s *Store) GetUserByToken(ctx context.Context, id, token, kind string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return s.findUser(ctx, bson.M{
		"_id": oid,
		"tokens": bson.M{"$elemMatch": bson.M{
			"token":  token,
			"access": kind,
		}},
	})
}

func (s *Store) findUser(ctx context.Context, query bson.M) (*model.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

// AddToken appends a token to the user's token list.
func (s *Store) AddToken(ctx context.Context, userID string, token model.Token) error {
	return s.updateUser(ctx, userID, bson.M{"$push": bson.M{"tokens": token}})
}

// RemoveToken pulls a token from the user's token list.
func (s *Store) RemoveToken(ctx context.Context, userID, token string) error {
	return s.updateUser(ctx, userID, bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}})
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return s.updateUser(ctx, userID, bson.M{"$set": bson.M{"password": hash}})
}

func (s *Store) updateUser(ctx context.Context, userID string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := s.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
