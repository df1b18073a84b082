package repository

import (
	"errors"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindByUserID(userID uint) (*model.Cart, error)
	GetOrCreate(userID uint) (*model.Cart, error)
	FindItem(cartID, variantID uint) (*model.CartItem, error)
	FindItemForUser(userID, itemID uint) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItem(itemID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func preloadCart(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id ASC")
	}).Preload("Items.Variant").Preload("Items.Variant.Product")
}

// FindByUserID returns the user's cart with items, variants and products.
func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	if err := preloadCart(r.db).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating it on first use. The
// unique user_id index makes a concurrent first add converge on one row.
func (r *cartRepository) GetOrCreate(userID uint) (*model.Cart, error) {
	cart := model.Cart{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	var found model.Cart
	if err := r.db.Where("user_id = ?", userID).First(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *cartRepository) FindItem(cartID, variantID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.Where("cart_id = ? AND variant_id = ?", cartID, variantID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUser loads an item only if it sits in userID's cart.
func (r *cartRepository) FindItemForUser(userID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		Preload("Variant").
		Preload("Variant.Product").
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"variant_id": item.VariantID,
		"quantity":   item.Quantity,
	})

	if err := r.db.Omit("Variant").Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"variant_id": item.VariantID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	if err := r.db.Model(&model.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error; err != nil {
		logger.Error("Failed to update cart item quantity", err, map[string]interface{}{
			"cart_item_id": itemID,
			"quantity":     quantity,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(itemID uint) error {
	if err := r.db.Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}
