package repository

import (
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(entry *model.NotificationLog) error
	FindByOrderID(orderID uint) ([]model.NotificationLog, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(entry *model.NotificationLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to write notification log", err, map[string]interface{}{
			"order_id": entry.OrderID,
			"status":   entry.Status,
		})
		return err
	}
	return nil
}

func (r *notificationRepository) FindByOrderID(orderID uint) ([]model.NotificationLog, error) {
	var entries []model.NotificationLog
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&entries).Error
	return entries, err
}
