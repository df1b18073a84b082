package repository

import (
	"testing"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCartRepository_GetOrCreate(t *testing.T) {
	conn := newTestDB(t)
	repo := NewCartRepository(conn)
	user := createUser(t, conn, "cliente@moda.cl", model.RoleCustomer)

	first, err := repo.GetOrCreate(user.ID)
	require.NoError(t, err)
	second, err := repo.GetOrCreate(user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	conn.Model(&model.Cart{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCartRepository_Items(t *testing.T) {
	conn := newTestDB(t)
	repo := NewCartRepository(conn)
	user := createUser(t, conn, "cliente@moda.cl", model.RoleCustomer)
	other := createUser(t, conn, "otro@moda.cl", model.RoleCustomer)
	product := createProduct(t, conn, "Polera EA7", 24990, 5)

	cart, err := repo.GetOrCreate(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, VariantID: product.Variants[0].ID, Quantity: 2, UnitPrice: 24990}
	require.NoError(t, repo.CreateItem(item))

	duplicate := &model.CartItem{CartID: cart.ID, VariantID: product.Variants[0].ID, Quantity: 1, UnitPrice: 24990}
	assert.Error(t, repo.CreateItem(duplicate))

	found, err := repo.FindItem(cart.ID, product.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	owned, err := repo.FindItemForUser(user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Polera EA7", owned.Variant.Product.Name)

	_, err = repo.FindItemForUser(other.ID, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateItemQuantity(item.ID, 4))
	loaded, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 4, loaded.Items[0].Quantity)
	assert.Equal(t, int64(99960), loaded.Total())
	assert.Equal(t, "Polera EA7", loaded.Items[0].Variant.Product.Name)

	require.NoError(t, repo.DeleteItem(item.ID))
	loaded, err = repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestCartRepository_FindByUserID_Missing(t *testing.T) {
	conn := newTestDB(t)
	repo := NewCartRepository(conn)

	_, err := repo.FindByUserID(42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
