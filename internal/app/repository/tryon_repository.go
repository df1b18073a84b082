package repository

import (
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gorm.io/gorm"
)

type TryOnRepository interface {
	Create(event *model.TryOnEvent) error
	CountByProduct(productID uint) (int64, error)
}

type tryOnRepository struct {
	db *gorm.DB
}

func NewTryOnRepository(db *gorm.DB) TryOnRepository {
	return &tryOnRepository{db: db}
}

func (r *tryOnRepository) Create(event *model.TryOnEvent) error {
	if err := r.db.Omit("Product").Create(event).Error; err != nil {
		logger.Error("Failed to record try-on event", err, map[string]interface{}{
			"product_id": event.ProductID,
		})
		return err
	}
	return nil
}

func (r *tryOnRepository) CountByProduct(productID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.TryOnEvent{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
