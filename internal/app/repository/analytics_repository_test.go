package repository

import (
	"testing"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsRepository_Aggregates(t *testing.T) {
	conn := newTestDB(t)
	repo := NewAnalyticsRepository(conn)

	createProduct(t, conn, "Polera", 1000, 3, 10)
	createProduct(t, conn, "Jeans", 2000, 20)
	createProduct(t, conn, "Gorro", 500, 5, 0)

	line := func(name string, qty int, price int64) model.OrderItem {
		return model.OrderItem{ProductName: name, SizeColor: "M/Negro", Quantity: qty, UnitPrice: price}
	}
	createOrder(t, conn, nil, "MODA1", model.OrderStatusConfirmed, line("Polera", 2, 1000))
	createOrder(t, conn, nil, "MODA2", model.OrderStatusDelivered, line("Jeans", 1, 2000), line("Polera", 1, 1000))
	createOrder(t, conn, nil, "MODA3", model.OrderStatusPending, line("Gorro", 5, 500))
	createOrder(t, conn, nil, "MODA4", model.OrderStatusCancelled, line("Polera", 4, 1000))

	revenue, err := repo.Revenue()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), revenue)

	count, err := repo.OrderCount()
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	lowStock, err := repo.LowStockProductCount(model.LowStockThreshold)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lowStock)

	top, err := repo.TopSellingProducts(5)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, ProductUnits{ProductName: "Polera", Units: 7}, top[0])

	sold, err := repo.UnitsSold("Polera", model.SalesStatuses)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sold)
}

func TestAnalyticsRepository_MostTriedProducts(t *testing.T) {
	conn := newTestDB(t)
	repo := NewAnalyticsRepository(conn)

	polera := createProduct(t, conn, "Polera", 1000, 1)
	jeans := createProduct(t, conn, "Jeans", 2000, 1)
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.Create(&model.TryOnEvent{ProductID: polera.ID}).Error)
	}
	require.NoError(t, conn.Create(&model.TryOnEvent{ProductID: jeans.ID}).Error)

	tried, err := repo.MostTriedProducts(5)
	require.NoError(t, err)
	require.Len(t, tried, 2)
	assert.Equal(t, ProductTries{ProductName: "Polera", Tries: 3}, tried[0])
	assert.Equal(t, ProductTries{ProductName: "Jeans", Tries: 1}, tried[1])
}

func TestAnalyticsRepository_CustomerStats(t *testing.T) {
	conn := newTestDB(t)
	repo := NewAnalyticsRepository(conn)

	buyer := createUser(t, conn, "buyer@moda.cl", model.RoleCustomer)
	browser := createUser(t, conn, "browser@moda.cl", model.RoleCustomer)
	createUser(t, conn, "staff@moda.cl", model.RoleStaff)
	product := createProduct(t, conn, "Polera", 1000, 1)

	createOrder(t, conn, &buyer.ID, "MODA1", model.OrderStatusConfirmed, model.OrderItem{ProductName: "Polera", SizeColor: "S/Negro", Quantity: 3, UnitPrice: 1000})
	createOrder(t, conn, &buyer.ID, "MODA2", model.OrderStatusPending, model.OrderItem{ProductName: "Polera", SizeColor: "S/Negro", Quantity: 9, UnitPrice: 1000})
	require.NoError(t, conn.Create(&model.TryOnEvent{ProductID: product.ID, UserID: &browser.ID}).Error)
	require.NoError(t, conn.Create(&model.TryOnEvent{ProductID: product.ID, UserID: &browser.ID}).Error)

	stats, err := repo.CustomerStats(model.SalesStatuses)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, buyer.ID, stats[0].UserID)
	assert.Equal(t, int64(3000), stats[0].Spend)
	assert.Equal(t, int64(1), stats[0].Orders)
	require.NotNil(t, stats[0].LastOrderAt)
	assert.WithinDuration(t, time.Now(), *stats[0].LastOrderAt, time.Hour)

	assert.Equal(t, browser.ID, stats[1].UserID)
	assert.Zero(t, stats[1].Orders)
	assert.Equal(t, int64(2), stats[1].TryOns)
	assert.Nil(t, stats[1].LastOrderAt)
}
