package repository

import (
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"gorm.io/gorm"
)

type ProductUnits struct {
	ProductName string `json:"product_name"`
	Units       int64  `json:"units"`
}

type ProductTries struct {
	ProductName string `json:"product_name"`
	Tries       int64  `json:"tries"`
}

// CustomerStats is the raw per-customer aggregate behind CRM segments.
type CustomerStats struct {
	UserID      uint
	Email       string
	Name        string
	Spend       int64
	Orders      int64
	TryOns      int64
	LastOrderAt *time.Time
}

// AnalyticsRepository runs the read-only BI aggregates.
type AnalyticsRepository interface {
	Revenue() (int64, error)
	OrderCount() (int64, error)
	LowStockProductCount(threshold int) (int64, error)
	TopSellingProducts(limit int) ([]ProductUnits, error)
	MostTriedProducts(limit int) ([]ProductTries, error)
	UnitsSold(productName string, statuses []model.OrderStatus) (int64, error)
	CustomerStats(statuses []model.OrderStatus) ([]CustomerStats, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Revenue() (int64, error) {
	var total int64
	err := r.db.Model(&model.Order{}).
		Where("status NOT IN ?", model.RevenueExcludedStatuses).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	return total, err
}

func (r *analyticsRepository) OrderCount() (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).Count(&count).Error
	return count, err
}

func (r *analyticsRepository) LowStockProductCount(threshold int) (int64, error) {
	var count int64
	err := r.db.Model(&model.Variant{}).
		Where("stock <= ?", threshold).
		Distinct("product_id").
		Count(&count).Error
	return count, err
}

// TopSellingProducts groups order lines by the product name snapshot so
// renamed or deleted products still report their history.
func (r *analyticsRepository) TopSellingProducts(limit int) ([]ProductUnits, error) {
	var rows []ProductUnits
	err := r.db.Model(&model.OrderItem{}).
		Select("product_name, SUM(quantity) AS units").
		Group("product_name").
		Order("units DESC").
		Order("product_name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) MostTriedProducts(limit int) ([]ProductTries, error) {
	var rows []ProductTries
	err := r.db.Model(&model.TryOnEvent{}).
		Joins("JOIN products ON products.id = try_on_events.product_id").
		Select("products.name AS product_name, COUNT(try_on_events.id) AS tries").
		Group("products.name").
		Order("tries DESC").
		Order("products.name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) UnitsSold(productName string, statuses []model.OrderStatus) (int64, error) {
	var units int64
	err := r.db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_name = ? AND orders.status IN ?", productName, statuses).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&units).Error
	return units, err
}

// CustomerStats aggregates every non-staff user: spend, order count and
// last order date over orders in statuses, plus try-on events.
func (r *analyticsRepository) CustomerStats(statuses []model.OrderStatus) ([]CustomerStats, error) {
	orders := r.db.Model(&model.Order{}).
		Select("user_id, COALESCE(SUM(total), 0) AS spend, COUNT(id) AS orders, MAX(created_at) AS last_order_at").
		Where("status IN ? AND user_id IS NOT NULL", statuses).
		Group("user_id")

	tries := r.db.Model(&model.TryOnEvent{}).
		Select("user_id, COUNT(id) AS try_ons").
		Where("user_id IS NOT NULL").
		Group("user_id")

	type row struct {
		UserID      uint
		Email       string
		Name        string
		Spend       int64
		Orders      int64
		TryOns      int64
		LastOrderAt *string
	}

	var rows []row
	err := r.db.Table("users").
		Select("users.id AS user_id, users.email, users.name, COALESCE(o.spend, 0) AS spend, COALESCE(o.orders, 0) AS orders, COALESCE(t.try_ons, 0) AS try_ons, o.last_order_at").
		Joins("LEFT JOIN (?) AS o ON o.user_id = users.id", orders).
		Joins("LEFT JOIN (?) AS t ON t.user_id = users.id", tries).
		Where("users.role NOT IN ?", []model.UserRole{model.RoleStaff, model.RoleAdmin}).
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]CustomerStats, 0, len(rows))
	for _, rw := range rows {
		stats = append(stats, CustomerStats{
			UserID:      rw.UserID,
			Email:       rw.Email,
			Name:        rw.Name,
			Spend:       rw.Spend,
			Orders:      rw.Orders,
			TryOns:      rw.TryOns,
			LastOrderAt: parseAggregateTime(rw.LastOrderAt),
		})
	}
	return stats, nil
}

// aggregateTimeFormats covers MAX(timestamp) as returned by PostgreSQL
// (converted by database/sql) and by SQLite (stored text).
var aggregateTimeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseAggregateTime(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range aggregateTimeFormats {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}
	return nil
}
