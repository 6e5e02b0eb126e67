package memory

import (
	"context"
	"fmt"
	"testing"

	"herdbook-backend/internal/domain/breed"
	"herdbook-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBreed(t *testing.T, name string) *breed.Breed {
	t.Helper()
	b, err := breed.New(breed.Attributes{Name: name})
	require.NoError(t, err)
	return b
}

func TestBreedStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and retrieves by id and name", func(t *testing.T) {
		store := NewBreedStore()
		b := newBreed(t, "Arabian")
		require.NoError(t, store.Create(ctx, b))

		byID, err := store.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Arabian", byID.Name)

		byName, err := store.GetByName(ctx, "arabian")
		require.NoError(t, err)
		assert.Equal(t, b.ID, byName.ID)
	})

	t.Run("rejects duplicate names case-insensitively", func(t *testing.T) {
		store := NewBreedStore()
		require.NoError(t, store.Create(ctx, newBreed(t, "Arabian")))

		err := store.Create(ctx, newBreed(t, "ARABIAN"))
		assert.True(t, repository.IsConflict(err))
	})

	t.Run("returned entities are copies", func(t *testing.T) {
		store := NewBreedStore()
		b := newBreed(t, "Arabian")
		require.NoError(t, store.Create(ctx, b))

		got, err := store.GetByID(ctx, b.ID)
		require.NoError(t, err)
		got.Name = "Mutated"

		again, err := store.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Arabian", again.Name)
	})

	t.Run("missing ids are not found", func(t *testing.T) {
		store := NewBreedStore()
		_, err := store.GetByID(ctx, "nope")
		assert.True(t, repository.IsNotFound(err))
	})
}

func TestBreedStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("renames move the uniqueness claim", func(t *testing.T) {
		store := NewBreedStore()
		b := newBreed(t, "Arabian")
		require.NoError(t, store.Create(ctx, b))

		b.Name = "Akhal-Teke"
		require.NoError(t, store.Update(ctx, b))

		_, err := store.GetByName(ctx, "Arabian")
		assert.True(t, repository.IsNotFound(err))

		got, err := store.GetByName(ctx, "Akhal-Teke")
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	})

	t.Run("renaming onto a taken name conflicts", func(t *testing.T) {
		store := NewBreedStore()
		a := newBreed(t, "Arabian")
		other := newBreed(t, "Thoroughbred")
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, other))

		a.Name = "Thoroughbred"
		assert.True(t, repository.IsConflict(store.Update(ctx, a)))
	})
}

func TestBreedStoreList(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *BreedStore {
		t.Helper()
		store := NewBreedStore()
		require.NoError(t, store.Seed(ctx))
		return store
	}

	t.Run("seeded data lists alphabetically", func(t *testing.T) {
		store := seed(t)
		page, err := store.List(ctx, repository.BreedQuery{})
		require.NoError(t, err)

		require.Equal(t, 3, page.Total)
		assert.Equal(t, "Arabian", page.Items[0].Name)
		assert.Equal(t, "Clydesdale", page.Items[1].Name)
		assert.Equal(t, "Thoroughbred", page.Items[2].Name)
	})

	t.Run("paginates", func(t *testing.T) {
		store := NewBreedStore()
		for i := 0; i < 25; i++ {
			require.NoError(t, store.Create(ctx, newBreed(t, fmt.Sprintf("Breed %02d", i))))
		}

		page, err := store.List(ctx, repository.BreedQuery{Page: 2, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, page.Total)
		assert.Len(t, page.Items, 10)
		assert.Equal(t, "Breed 10", page.Items[0].Name)

		last, err := store.List(ctx, repository.BreedQuery{Page: 3, Size: 10})
		require.NoError(t, err)
		assert.Len(t, last.Items, 5)

		beyond, err := store.List(ctx, repository.BreedQuery{Page: 9, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, beyond.Items)
	})

	t.Run("search matches name and origin", func(t *testing.T) {
		store := seed(t)

		page, err := store.List(ctx, repository.BreedQuery{Search: "scot"})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "Clydesdale", page.Items[0].Name)
	})

	t.Run("active only excludes deactivated breeds", func(t *testing.T) {
		store := seed(t)
		b, err := store.GetByName(ctx, "Arabian")
		require.NoError(t, err)
		b.Deactivate()
		require.NoError(t, store.Update(ctx, b))

		active, err := store.List(ctx, repository.BreedQuery{ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, 2, active.Total)

		all, err := store.List(ctx, repository.BreedQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3, all.Total)
	})

	t.Run("seed is idempotent", func(t *testing.T) {
		store := seed(t)
		require.NoError(t, store.Seed(ctx))

		page, err := store.List(ctx, repository.BreedQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})
}
