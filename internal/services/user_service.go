package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lmoren/listly-be/internal/apperr"
	"github.com/lmoren/listly-be/internal/docstore"
	"github.com/lmoren/listly-be/internal/models"
)

// UserServiceProvider defines the interface for the user directory.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, username string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	RenameUser(ctx context.Context, id, newUsername string) (models.User, error)
}

// UserService provides business logic for user accounts. Accounts are
// passwordless: a username is claimed once at onboarding and stays unique.
type UserService struct {
	store docstore.Store
}

// NewUserService creates a new UserService.
func NewUserService(store docstore.Store) *UserService {
	return &UserService{store: store}
}

// CreateUser claims a username and creates the account.
func (s *UserService) CreateUser(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, apperr.Validation("username must not be empty")
	}

	taken, err := s.usernameTaken(ctx, username, "")
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, apperr.Duplicate("username", username)
	}

	user := models.User{
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	fields, err := docstore.Encode(user)
	if err != nil {
		return models.User{}, err
	}

	id, err := s.store.Insert(ctx, docstore.CollectionUsers, fields)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	fields, err := s.store.GetByID(ctx, docstore.CollectionUsers, id)
	if err == docstore.ErrNotFound {
		return models.User{}, apperr.NotFound("user", id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := docstore.Decode(fields, &user); err != nil {
		return models.User{}, err
	}
	user.ID = id
	return user, nil
}

// GetUserByUsername resolves a username to the account that claimed it.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, apperr.Validation("username must not be empty")
	}

	docs, err := s.store.QueryEquals(ctx, docstore.CollectionUsers, "username", username)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query users: %w", err)
	}
	if len(docs) == 0 {
		return models.User{}, apperr.NotFound("user", username)
	}

	var user models.User
	if err := docstore.Decode(docs[0].Fields, &user); err != nil {
		return models.User{}, err
	}
	user.ID = docs[0].ID
	return user, nil
}

// RenameUser changes an account's username. The account id stays stable.
func (s *UserService) RenameUser(ctx context.Context, id, newUsername string) (models.User, error) {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return models.User{}, apperr.Validation("username must not be empty")
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	taken, err := s.usernameTaken(ctx, newUsername, id)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, apperr.Duplicate("username", newUsername)
	}

	err = s.store.ReplaceFields(ctx, docstore.CollectionUsers, id, docstore.Fields{"username": newUsername})
	if err == docstore.ErrNotFound {
		return models.User{}, apperr.NotFound("user", id)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to rename user: %w", err)
	}

	user.Username = newUsername
	return user, nil
}

// usernameTaken reports whether another account already holds the username.
func (s *UserService) usernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	docs, err := s.store.QueryEquals(ctx, docstore.CollectionUsers, "username", username)
	if err != nil {
		return false, fmt.Errorf("failed to query users: %w", err)
	}
	for _, doc := range docs {
		if doc.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}
