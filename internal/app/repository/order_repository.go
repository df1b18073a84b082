package repository

import (
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	DefaultOrderPageSize = 20
	MaxOrderPageSize     = 100
)

// OrderFilter drives the staff order list.
type OrderFilter struct {
	Status   *model.OrderStatus
	Search   string // order number or email prefix
	Page     int
	PageSize int
}

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindWithFilter(filter OrderFilter) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func preloadOrderItems(db *gorm.DB) *gorm.DB {
	return db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := preloadOrderItems(r.db).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	if err := preloadOrderItems(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindWithFilter(filter OrderFilter) ([]model.Order, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = DefaultOrderPageSize
	}
	if filter.PageSize > MaxOrderPageSize {
		filter.PageSize = MaxOrderPageSize
	}

	query := r.db.Model(&model.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("order_number LIKE ? OR email LIKE ?", filter.Search+"%", filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	if err := preloadOrderItems(query).
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders", err)
		return nil, 0, err
	}
	return orders, total, nil
}

// ConfirmPaid moves a pending order to confirmed and stamps paid_at inside
// tx. It reports false when the order was no longer pending.
func ConfirmPaid(tx *gorm.DB, id uint, paidAt time.Time) (bool, error) {
	result := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":  model.OrderStatusConfirmed,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
