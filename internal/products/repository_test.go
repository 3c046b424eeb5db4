package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/hauler-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestProduct(supplierID uuid.UUID, name string, stock int, createdAt time.Time) *models.Product {
	return &models.Product{
		SupplierID:    supplierID,
		SupplierName:  "Acme Supply",
		Name:          name,
		Description:   "A product used in repository tests",
		Price:         decimal.RequireFromString("12.50"),
		StockQuantity: stock,
		MOQ:           1,
		CreatedAt:     createdAt,
	}
}

func TestRepositoryProductFlow(t *testing.T) {
	repo := NewRepository(dbtest.OpenDB(t))
	ctx := context.Background()

	product := newTestProduct(uuid.New(), "Cement bag", 40, time.Time{})
	require.NoError(t, repo.Create(ctx, product))
	require.NotEqual(t, uuid.Nil, product.ID)

	fetched, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cement bag", fetched.Name)
	assert.True(t, fetched.Price.Equal(decimal.RequireFromString("12.5")))

	fetched.StockQuantity = 0
	fetched.Name = "Cement bag 25kg"
	require.NoError(t, repo.Update(ctx, fetched))

	again, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.StockQuantity)
	assert.Equal(t, "Cement bag 25kg", again.Name)

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.FindByID(ctx, product.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	repo := NewRepository(dbtest.OpenDB(t))
	ctx := context.Background()
	supplier := uuid.New()
	other := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []*models.Product{
		newTestProduct(supplier, "Oldest", 5, base),
		newTestProduct(supplier, "Sold out", 0, base.Add(time.Minute)),
		newTestProduct(other, "Other supplier", 3, base.Add(2*time.Minute)),
		newTestProduct(supplier, "Newest", 9, base.Add(3*time.Minute)),
	}
	for _, p := range fixtures {
		require.NoError(t, repo.Create(ctx, p))
	}

	inStock, err := repo.list(ctx, listQuery{InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, inStock, 3)
	assert.Equal(t, "Newest", inStock[0].Name)
	assert.Equal(t, "Other supplier", inStock[1].Name)
	assert.Equal(t, "Oldest", inStock[2].Name)

	firstPage, err := repo.list(ctx, listQuery{SupplierID: &supplier, Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, firstPage, 3, "limit plus one look-ahead row")

	page, next := pagination.Trim(firstPage, 2, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	require.Len(t, page, 2)
	require.NotEmpty(t, next)

	cursor, err := pagination.ParseCursor(next)
	require.NoError(t, err)
	secondPage, err := repo.list(ctx, listQuery{SupplierID: &supplier, Pagination: pagination.Params{Limit: 2}, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	assert.Equal(t, "Oldest", secondPage[0].Name)
}
