package repository

import (
	"github.com/ikkim/moda-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockVariant loads a variant with SELECT ... FOR UPDATE. SQLite ignores
// the locking clause and serializes writers itself.
func lockVariant(tx *gorm.DB, id uint, dest *model.Variant) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, id).Error
}

// LockVariant is lockVariant for callers that own the transaction.
func LockVariant(tx *gorm.DB, id uint) (*model.Variant, error) {
	var v model.Variant
	if err := lockVariant(tx, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AdjustStock applies delta to a locked variant and appends the movement
// row in the same transaction.
func AdjustStock(tx *gorm.DB, v *model.Variant, delta int, kind model.StockMovementKind, orderID *uint) error {
	if err := tx.Model(&model.Variant{}).Where("id = ?", v.ID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error; err != nil {
		return err
	}
	before := v.Stock
	v.Stock += delta
	return recordMovement(tx, v.ID, kind, before, v.Stock, orderID)
}

func recordMovement(tx *gorm.DB, variantID uint, kind model.StockMovementKind, before, after int, orderID *uint) error {
	return tx.Create(&model.StockMovement{
		VariantID:   variantID,
		Kind:        kind,
		Quantity:    after - before,
		StockBefore: before,
		StockAfter:  after,
		OrderID:     orderID,
	}).Error
}
