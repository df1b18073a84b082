package repository

import (
	"testing"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, conn *gorm.DB, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: email, Role: role}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func createProduct(t *testing.T, conn *gorm.DB, name string, price int64, stocks ...int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     name,
		Category: model.CategoryMen,
		Brand:    model.BrandGuess,
		Price:    price,
		Active:   true,
	}
	sizes := []string{"S", "M", "L", "XL"}
	for i, stock := range stocks {
		product.Variants = append(product.Variants, model.Variant{Size: sizes[i], Color: "Negro", Stock: stock})
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func createOrder(t *testing.T, conn *gorm.DB, userID *uint, number string, status model.OrderStatus, items ...model.OrderItem) *model.Order {
	t.Helper()
	var subtotal int64
	for _, it := range items {
		subtotal += int64(it.Quantity) * it.UnitPrice
	}
	order := &model.Order{
		UserID:          userID,
		OrderNumber:     number,
		Email:           "cliente@moda.cl",
		Subtotal:        subtotal,
		Total:           subtotal,
		ShippingAddress: "Av. Providencia #1234, Providencia",
		Status:          status,
		OrderItems:      items,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}
