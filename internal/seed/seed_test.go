package seed

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type recordingIndexer struct {
	got []models.Product
}

func (r *recordingIndexer) IndexProducts(_ context.Context, p []models.Product) error {
	r.got = append(r.got, p...)
	return nil
}

func newStore(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func TestDefaultCatalog(t *testing.T) {
	products, err := DefaultCatalog()
	require.NoError(t, err)
	require.Len(t, products, 15)

	first := products[0]
	assert.Equal(t, "iPhone 14 Pro", first.Name)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("999.99")))
	assert.Equal(t, 4.5, first.Rating)
	assert.Equal(t, 25, first.Stock)
	assert.NotEmpty(t, first.ID)

	assert.Equal(t, `MacBook Pro 16"`, products[1].Name)

	ids := map[string]bool{}
	for _, p := range products {
		ids[p.ID] = true
	}
	assert.Len(t, ids, 15)
}

func TestCatalog_BadPrice(t *testing.T) {
	_, err := Catalog([]byte("products:\n  - name: x\n    price: abc\n"))
	require.Error(t, err)

	_, err = Catalog([]byte("products:\n  - name: x\n    price: \"-1\"\n"))
	require.Error(t, err)
}

func TestRun_SeedsOnlyEmptyStore(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	idx := &recordingIndexer{}

	n, err := Run(ctx, store, idx)
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Len(t, idx.got, 15)

	n, err = Run(ctx, store, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := store.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)

	cats, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"smartphones", "laptops", "headphones", "accessories", "wearables", "tablets", "audio", "components"}, cats)
}

func TestReindex_WithoutSeeding(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	p := models.Product{ID: "p-1", Name: "Existing", Price: decimal.RequireFromString("1.00"), Category: "misc"}
	require.NoError(t, store.CreateProducts(ctx, []models.Product{p}))

	idx := &recordingIndexer{}
	n, err := Reindex(ctx, store, idx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, idx.got, 1)
	assert.Equal(t, "p-1", idx.got[0].ID)
}
