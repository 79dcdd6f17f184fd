// Package storetest holds the behavioural contract every
// domain.ProductRepository implementation must satisfy.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// Factory returns an empty repository for a single subtest
type Factory func(t *testing.T) domain.ProductRepository

// NewProduct builds a product with a fresh id
func NewProduct(name string, price string, stock int) domain.Product {
	return domain.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   name + " description",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

// Run executes the repository contract against repositories built by newRepo
func Run(t *testing.T, newRepo Factory) {
	t.Run("SaveThenFindByID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := NewProduct("Test Product", "10.99", 100)

		saved, err := repo.Save(ctx, p)
		require.NoError(t, err)
		assert.True(t, p.Equal(saved))

		got, found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, p.Equal(got), "got %+v want %+v", got, p)

		exists, err := repo.ExistsByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("FindByIDMissing", func(t *testing.T) {
		repo := newRepo(t)

		got, found, err := repo.FindByID(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, domain.Product{}, got)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := NewProduct("Original", "1.00", 1)
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)

		p.Name = "Replaced"
		p.Description = ""
		p.Price = decimal.RequireFromString("2.50")
		p.StockQuantity = 0
		_, err = repo.Save(ctx, p)
		require.NoError(t, err)

		got, found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, p.Equal(got), "got %+v want %+v", got, p)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("FindAllEmpty", func(t *testing.T) {
		repo := newRepo(t)

		all, err := repo.FindAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("Cardinality", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const n = 10
		ids := make([]uuid.UUID, 0, n)
		for i := 0; i < n; i++ {
			p := NewProduct(fmt.Sprintf("Product %d", i), "5.00", i)
			ids = append(ids, p.ID)
			_, err := repo.Save(ctx, p)
			require.NoError(t, err)
		}

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, n)

		deleted, err := repo.DeleteByID(ctx, ids[3])
		require.NoError(t, err)
		assert.True(t, deleted)

		all, err = repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, n-1)
		for _, p := range all {
			assert.NotEqual(t, ids[3], p.ID)
		}
	})

	t.Run("DeleteThenRead", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := NewProduct("Doomed", "3.00", 3)
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)

		deleted, err := repo.DeleteByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, found)

		exists, err := repo.ExistsByID(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.Save(ctx, NewProduct("Keeper", "1.00", 1))
		require.NoError(t, err)

		deleted, err := repo.DeleteByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, deleted)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ReturnedValuesAreCopies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := NewProduct("Stable", "9.99", 9)
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)

		got, _, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		got.Name = "Mutated by caller"

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		all[0].StockQuantity = -1

		again, _, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, p.Equal(again))
	})

	t.Run("PreservesDecimalPrecision", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := NewProduct("Precise", "12345678901234.123456789", 1)
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)

		got, found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "12345678901234.123456789", got.Price.String())
	})
}

// RunConcurrent hammers a repository from many goroutines. Each worker owns a
// disjoint key range, so the final contents are deterministic.
func RunConcurrent(t *testing.T, repo domain.ProductRepository, workers, perWorker int) {
	ctx := context.Background()

	var g errgroup.Group
	kept := make([][]domain.Product, workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				p := NewProduct(fmt.Sprintf("w%d-%d", w, i), "1.00", i)
				if _, err := repo.Save(ctx, p); err != nil {
					return err
				}
				if _, err := repo.FindAll(ctx); err != nil {
					return err
				}
				if i%2 == 1 {
					deleted, err := repo.DeleteByID(ctx, p.ID)
					if err != nil {
						return err
					}
					if !deleted {
						return fmt.Errorf("worker %d: delete of own key %s reported missing", w, p.ID)
					}
					continue
				}
				kept[w] = append(kept[w], p)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)

	want := 0
	for _, ps := range kept {
		want += len(ps)
		for _, p := range ps {
			got, found, err := repo.FindByID(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, found, "missing %s", p.ID)
			assert.True(t, p.Equal(got))
		}
	}
	assert.Len(t, all, want)
}

// RunSameKeyRace races saves and deletes on one key. Whatever wins, the
// entry must be either absent or exactly one of the written values.
func RunSameKeyRace(t *testing.T, repo domain.ProductRepository, rounds int) {
	ctx := context.Background()
	id := uuid.New()

	variants := []domain.Product{
		{ID: id, Name: "A", Description: "first", Price: decimal.RequireFromString("1.11"), StockQuantity: 1},
		{ID: id, Name: "B", Description: "second", Price: decimal.RequireFromString("2.22"), StockQuantity: 2},
	}

	var g errgroup.Group
	for _, v := range variants {
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				if _, err := repo.Save(ctx, v); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			if _, err := repo.DeleteByID(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < rounds; i++ {
			got, found, err := repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if found && !got.Equal(variants[0]) && !got.Equal(variants[1]) {
				return fmt.Errorf("torn read: %+v", got)
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
}
