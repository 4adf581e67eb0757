package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emailai/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	current := start
	return func() time.Time { return current },
		func(d time.Duration) { current = current.Add(d) }
}

func countingLoader(emails []*models.Email) (Loader, *int) {
	calls := 0
	return func(_ context.Context) ([]*models.Email, error) {
		calls++
		out := make([]*models.Email, len(emails))
		for i, e := range emails {
			clone := *e
			out[i] = &clone
		}
		return out, nil
	}, &calls
}

func TestStoreFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("skips reload inside the freshness window", func(t *testing.T) {
		loader, calls := countingLoader([]*models.Email{{ID: "e1"}})
		store := NewStore(loader)
		now, advance := fixedClock(time.Now())
		store.now = now

		require.NoError(t, store.Fetch(ctx, false))
		require.NoError(t, store.Fetch(ctx, false))
		assert.Equal(t, 1, *calls)

		advance(Freshness + time.Second)
		require.NoError(t, store.Fetch(ctx, false))
		assert.Equal(t, 2, *calls)
	})

	t.Run("empty cache is reloaded even when fresh", func(t *testing.T) {
		loader, calls := countingLoader(nil)
		store := NewStore(loader)

		require.NoError(t, store.Fetch(ctx, false))
		require.NoError(t, store.Fetch(ctx, false))
		assert.Equal(t, 2, *calls)
	})

	t.Run("force bypasses the window", func(t *testing.T) {
		loader, calls := countingLoader([]*models.Email{{ID: "e1"}})
		store := NewStore(loader)

		require.NoError(t, store.Fetch(ctx, false))
		require.NoError(t, store.Refresh(ctx))
		assert.Equal(t, 2, *calls)
	})

	t.Run("loader failure leaves cache untouched", func(t *testing.T) {
		boom := errors.New("db down")
		failing := Loader(func(_ context.Context) ([]*models.Email, error) { return nil, boom })
		store := NewStore(failing)

		err := store.Fetch(ctx, false)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, store.Len())
		assert.True(t, store.LastFetch().IsZero())
	})
}

func TestStorePatches(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T) *Store {
		t.Helper()
		loader, _ := countingLoader([]*models.Email{
			{ID: "e1", IsStarred: true},
			{ID: "e2"},
			{ID: "e3", IsArchived: true},
		})
		store := NewStore(loader)
		require.NoError(t, store.Fetch(ctx, false))
		return store
	}

	t.Run("mark trashed", func(t *testing.T) {
		store := newStore(t)
		store.MarkTrashed([]string{"e1", "e2"})

		e1, _ := store.Get("e1")
		assert.True(t, e1.IsInTrash)
		e3, _ := store.Get("e3")
		assert.False(t, e3.IsInTrash, "unlisted ids untouched")
	})

	t.Run("toggle starred flips per entry", func(t *testing.T) {
		store := newStore(t)
		store.ToggleStarred([]string{"e1", "e2"})

		e1, _ := store.Get("e1")
		assert.False(t, e1.IsStarred)
		e2, _ := store.Get("e2")
		assert.True(t, e2.IsStarred)
	})

	t.Run("restore clears trash and delete flags", func(t *testing.T) {
		store := newStore(t)
		store.MarkTrashed([]string{"e2"})
		store.MarkRestored([]string{"e2"})

		e2, _ := store.Get("e2")
		assert.False(t, e2.IsInTrash)
		assert.False(t, e2.IsDeleted)
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		store := newStore(t)
		store.MarkRead([]string{"nope"})
		assert.Equal(t, 3, store.Len())
	})
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()

	loader, calls := countingLoader([]*models.Email{{ID: "e1"}})
	store := NewStore(loader)
	require.NoError(t, store.Fetch(ctx, false))

	store.Clear()
	assert.Zero(t, store.Len())
	assert.True(t, store.LastFetch().IsZero())

	// After clear, the next fetch reloads.
	require.NoError(t, store.Fetch(ctx, false))
	assert.Equal(t, 2, *calls)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	created := map[string]int{}
	registry := NewRegistry(func(userID string) Loader {
		created[userID]++
		return func(_ context.Context) ([]*models.Email, error) {
			return []*models.Email{{ID: "for-" + userID}}, nil
		}
	})

	a := registry.ForUser("alice")
	assert.Same(t, a, registry.ForUser("alice"), "same store per user")
	assert.NotSame(t, a, registry.ForUser("bob"))
	assert.Equal(t, 1, created["alice"])

	require.NoError(t, a.Fetch(ctx, false))
	email, ok := a.Get("for-alice")
	require.True(t, ok)
	assert.Equal(t, "for-alice", email.ID)

	registry.Remove("alice")
	fresh := registry.ForUser("alice")
	assert.NotSame(t, a, fresh, "removed user gets a new store")
	assert.Equal(t, 2, created["alice"])
}
