package repository

import (
	"fmt"
	"strings"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	DefaultCatalogPageSize = 9
	MaxCatalogPageSize     = 60
)

// ProductFilter narrows the catalog. Zero values mean "no filter".
type ProductFilter struct {
	ActiveOnly bool
	Search     string
	Category   *model.ProductCategory
	Brand      *model.ProductBrand
	MinPrice   *int64
	MaxPrice   *int64
	Page       int
	PageSize   int
}

// Normalize clamps paging to the catalog limits.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultCatalogPageSize
	}
	if f.PageSize > MaxCatalogPageSize {
		f.PageSize = MaxCatalogPageSize
	}
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindVariantByID(id uint) (*model.Variant, error)
	Update(product *model.Product, variants []model.Variant) error
	Deactivate(id uint) error
	Restock(variantID uint, quantity int) (*model.Variant, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":     product.Name,
		"variants": len(product.Variants),
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	filter.Normalize()

	query := r.db.Model(&model.Product{})
	if filter.ActiveOnly {
		query = query.Where("products.active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(search))
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	if filter.Category != nil {
		query = query.Where("products.category = ?", *filter.Category)
	}
	if filter.Brand != nil {
		query = query.Where("products.brand = ?", *filter.Brand)
	}
	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	var products []model.Product
	if err := query.
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("variants.id ASC") }).
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&products).Error; err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"page":      filter.Page,
			"page_size": filter.PageSize,
		})
		return nil, 0, err
	}

	logger.Debug("Products listed", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("variants.id ASC") }).
		First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindVariantByID(id uint) (*model.Variant, error) {
	var variant model.Variant
	if err := r.db.Preload("Product").First(&variant, id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// Update saves the product fields and reconciles its variants: entries
// with an ID owned by the product are updated, entries without an ID are
// created, and every other variant of the product is deleted.
func (r *productRepository) Update(product *model.Product, variants []model.Variant) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
		"variants":   len(variants),
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(product).Select("Name", "Category", "Brand", "Price", "Description", "ImageURL", "Active").
			Updates(product).Error; err != nil {
			return err
		}

		var existing []model.Variant
		if err := tx.Where("product_id = ?", product.ID).Find(&existing).Error; err != nil {
			return err
		}
		owned := make(map[uint]model.Variant, len(existing))
		for _, v := range existing {
			owned[v.ID] = v
		}

		keep := make(map[uint]bool, len(variants))
		for _, v := range variants {
			if v.ID == 0 {
				continue
			}
			if _, ok := owned[v.ID]; !ok {
				return fmt.Errorf("variant %d does not belong to product %d: %w", v.ID, product.ID, gorm.ErrRecordNotFound)
			}
			keep[v.ID] = true
		}

		// Deletes go first so a dropped size/color can be reused.
		var removed []uint
		for id := range owned {
			if !keep[id] {
				removed = append(removed, id)
			}
		}
		if len(removed) > 0 {
			if err := tx.Where("id IN ?", removed).Delete(&model.Variant{}).Error; err != nil {
				return err
			}
		}

		for _, v := range variants {
			if v.ID == 0 {
				continue
			}
			before := owned[v.ID]
			if err := tx.Model(&model.Variant{}).Where("id = ?", v.ID).
				Updates(map[string]interface{}{"size": v.Size, "color": v.Color, "stock": v.Stock}).Error; err != nil {
				return err
			}
			if before.Stock != v.Stock {
				if err := recordMovement(tx, v.ID, model.StockMovementAdjustment, before.Stock, v.Stock, nil); err != nil {
					return err
				}
			}
		}

		for i := range variants {
			if variants[i].ID != 0 {
				continue
			}
			v := model.Variant{ProductID: product.ID, Size: variants[i].Size, Color: variants[i].Color, Stock: variants[i].Stock}
			if err := tx.Create(&v).Error; err != nil {
				return err
			}
			if v.Stock != 0 {
				if err := recordMovement(tx, v.ID, model.StockMovementAdjustment, 0, v.Stock, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *productRepository) Deactivate(id uint) error {
	result := r.db.Model(&model.Product{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate product", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Restock adds quantity units to a variant and records the movement.
func (r *productRepository) Restock(variantID uint, quantity int) (*model.Variant, error) {
	var variant model.Variant
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockVariant(tx, variantID, &variant); err != nil {
			return err
		}
		before := variant.Stock
		if err := tx.Model(&model.Variant{}).Where("id = ?", variantID).
			Update("stock", gorm.Expr("stock + ?", quantity)).Error; err != nil {
			return err
		}
		variant.Stock = before + quantity
		return recordMovement(tx, variantID, model.StockMovementRestock, before, variant.Stock, nil)
	})
	if err != nil {
		logger.Error("Failed to restock variant", err, map[string]interface{}{
			"variant_id": variantID,
			"quantity":   quantity,
		})
		return nil, err
	}
	return &variant, nil
}
