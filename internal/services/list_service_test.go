package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoren/listly-be/internal/apperr"
	"github.com/lmoren/listly-be/internal/docstore"
)

// hookStore wraps a Store and runs a callback after every GetByID, letting
// tests line up interleavings that would otherwise need real concurrency.
type hookStore struct {
	docstore.Store
	afterGet func()
}

func (h *hookStore) GetByID(ctx context.Context, collection, id string) (docstore.Fields, error) {
	fields, err := h.Store.GetByID(ctx, collection, id)
	if h.afterGet != nil {
		h.afterGet()
	}
	return fields, err
}

func newListService(t *testing.T) (*ListService, docstore.Store) {
	t.Helper()
	store := docstore.NewMemoryStore()
	return NewListService(store, nil, nil), store
}

func TestListService_CreateAndFetch(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	list, err := svc.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", list.Name)
	assert.Equal(t, "u1", list.OwnerID)
	assert.Empty(t, list.Items)
	assert.Empty(t, list.SharedWith)
	assert.Empty(t, list.InvitationCode)
}

func TestListService_CreateValidation(t *testing.T) {
	svc, _ := newListService(t)

	_, err := svc.CreateList(context.Background(), "   ", "u1")
	assert.True(t, apperr.IsValidation(err))
}

func TestListService_GetListsByOwner(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	_, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)
	_, err = svc.CreateList(ctx, "Hardware", "u1")
	require.NoError(t, err)
	_, err = svc.CreateList(ctx, "Other", "u2")
	require.NoError(t, err)

	lists, err := svc.GetListsByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lists, 2)

	lists, err = svc.GetListsByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, lists, "no match is an empty slice, not an error")
}

func TestListService_Rename(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	renamed, err := svc.RenameList(ctx, created.ID, "Weekend Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Weekend Groceries", renamed.Name)

	_, err = svc.RenameList(ctx, created.ID, " ")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.RenameList(ctx, "missing", "New Name")
	assert.True(t, apperr.IsNotFound(err))
}

func TestListService_DeleteIsNoOpOnMissing(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteList(ctx, created.ID))
	require.NoError(t, svc.DeleteList(ctx, created.ID), "deleting an absent list is a no-op")

	_, err = svc.GetListByID(ctx, created.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestListService_AddItem(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, created.ID, "  Milk  ")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Milk", item.Name)
	assert.False(t, item.Checked)

	list, err := svc.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, item, list.Items[0])
}

func TestListService_AddItem_CaseInsensitiveDuplicate(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, created.ID, "Milk")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, created.ID, "milk")
	assert.True(t, apperr.IsDuplicate(err), `"Milk" and "milk" collide`)

	_, err = svc.AddItem(ctx, created.ID, "   ")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AddItem(ctx, "missing", "Milk")
	assert.True(t, apperr.IsNotFound(err))
}

func TestListService_AddItem_PreservesOrder(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	for _, name := range []string{"Milk", "Eggs", "Bread"} {
		_, err := svc.AddItem(ctx, created.ID, name)
		require.NoError(t, err)
	}

	list, err := svc.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Milk", list.Items[0].Name)
	assert.Equal(t, "Eggs", list.Items[1].Name)
	assert.Equal(t, "Bread", list.Items[2].Name)
}

func TestListService_UpdateItem(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)
	milk, err := svc.AddItem(ctx, created.ID, "Milk")
	require.NoError(t, err)
	eggs, err := svc.AddItem(ctx, created.ID, "Eggs")
	require.NoError(t, err)

	toggled, err := svc.ToggleItemChecked(ctx, created.ID, milk.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Items[0].Checked)

	list, err := svc.UpdateItem(ctx, created.ID, milk.ID, "Oat Milk")
	require.NoError(t, err)
	assert.Equal(t, milk.ID, list.Items[0].ID, "id survives the rename")
	assert.Equal(t, "Oat Milk", list.Items[0].Name)
	assert.True(t, list.Items[0].Checked, "checked state survives the rename")
	assert.Equal(t, eggs.ID, list.Items[1].ID, "position is preserved")

	// Renaming onto another item collides; renaming onto itself does not.
	_, err = svc.UpdateItem(ctx, created.ID, milk.ID, "EGGS")
	assert.True(t, apperr.IsDuplicate(err))
	_, err = svc.UpdateItem(ctx, created.ID, milk.ID, "oat milk")
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, created.ID, "missing-item", "X")
	assert.True(t, apperr.IsNotFound(err))
}

func TestListService_DeleteItem_NoOpOnMissing(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)
	milk, err := svc.AddItem(ctx, created.ID, "Milk")
	require.NoError(t, err)

	before, err := svc.GetListByID(ctx, created.ID)
	require.NoError(t, err)

	after, err := svc.DeleteItem(ctx, created.ID, "never-existed")
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items, "list is unchanged by deleting an absent item")

	after, err = svc.DeleteItem(ctx, created.ID, milk.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
}

func TestListService_ToggleIsInvolution(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)
	milk, err := svc.AddItem(ctx, created.ID, "Milk")
	require.NoError(t, err)

	once, err := svc.ToggleItemChecked(ctx, created.ID, milk.ID)
	require.NoError(t, err)
	assert.True(t, once.Items[0].Checked)

	twice, err := svc.ToggleItemChecked(ctx, created.ID, milk.ID)
	require.NoError(t, err)
	assert.False(t, twice.Items[0].Checked, "toggling twice restores the original state")

	_, err = svc.ToggleItemChecked(ctx, created.ID, "missing-item")
	assert.True(t, apperr.IsNotFound(err))
}

// TestListService_GroceriesScenario walks the canonical end-to-end flow.
func TestListService_GroceriesScenario(t *testing.T) {
	svc, _ := newListService(t)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	milk, err := svc.AddItem(ctx, created.ID, "Milk")
	require.NoError(t, err)

	list, err := svc.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Milk", list.Items[0].Name)
	assert.False(t, list.Items[0].Checked)

	_, err = svc.AddItem(ctx, created.ID, "milk")
	assert.True(t, apperr.IsDuplicate(err))

	list, err = svc.ToggleItemChecked(ctx, created.ID, milk.ID)
	require.NoError(t, err)
	assert.True(t, list.Items[0].Checked)

	list, err = svc.DeleteItem(ctx, created.ID, milk.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

// TestListService_ConcurrentLostUpdate demonstrates the documented
// last-writer-wins behavior: two item additions whose reads both precede the
// other's write end up with only one of the two items persisted. This is the
// expected consequence of full-array read-modify-write without a concurrency
// token, not a defect being hidden.
func TestListService_ConcurrentLostUpdate(t *testing.T) {
	backing := docstore.NewMemoryStore()

	// Barrier: both AddItem calls must finish their read before either
	// proceeds to write. Only the first two reads participate so the final
	// verification read below passes through untouched.
	var barrier sync.WaitGroup
	barrier.Add(2)
	var reads atomic.Int32
	store := &hookStore{Store: backing, afterGet: func() {
		if reads.Add(1) > 2 {
			return
		}
		barrier.Done()
		barrier.Wait()
	}}

	svc := NewListService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "Groceries", "u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	for _, name := range []string{"Milk", "Eggs"} {
		go func(name string) {
			defer wg.Done()
			_, err := svc.AddItem(ctx, created.ID, name)
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	final, err := svc.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, final.Items, 1, "one of the two concurrent additions is silently lost")
}
