package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoren/listly-be/internal/apperr"
	"github.com/lmoren/listly-be/internal/docstore"
)

func TestUserService_CreateAndLookup(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "  ana  ")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana", user.Username, "username is trimmed")

	byName, err := svc.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byID, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", byID.Username)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore())

	_, err := svc.CreateUser(context.Background(), "   ")
	assert.True(t, apperr.IsValidation(err))
}

func TestUserService_DuplicateUsername(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "ana")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "ana")
	assert.True(t, apperr.IsDuplicate(err))
}

func TestUserService_LookupUnknown(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.GetUserByUsername(ctx, "ghost")
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.GetUserByID(ctx, "no-such-id")
	assert.True(t, apperr.IsNotFound(err))
}

func TestUserService_Rename(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "ana")
	require.NoError(t, err)

	renamed, err := svc.RenameUser(ctx, user.ID, "ana-maria")
	require.NoError(t, err)
	assert.Equal(t, user.ID, renamed.ID, "identity is stable across renames")
	assert.Equal(t, "ana-maria", renamed.Username)

	// The old username is free again, the new one is taken.
	_, err = svc.GetUserByUsername(ctx, "ana")
	assert.True(t, apperr.IsNotFound(err))

	other, err := svc.CreateUser(ctx, "bruno")
	require.NoError(t, err)
	_, err = svc.RenameUser(ctx, other.ID, "ana-maria")
	assert.True(t, apperr.IsDuplicate(err))
}

func TestUserService_RenameToOwnName(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "ana")
	require.NoError(t, err)

	renamed, err := svc.RenameUser(ctx, user.ID, "ana")
	require.NoError(t, err, "renaming to the current name is not a collision")
	assert.Equal(t, "ana", renamed.Username)
}
