package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/storage"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrVariantExists   = errors.New("variant with this size and color already exists")
)

const productImageFolder = "products"

type VariantInput struct {
	ID    uint   `json:"id"`
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

// ProductInput is the staff payload for create and update.
type ProductInput struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Brand       string         `json:"brand"`
	Price       int64          `json:"price"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url"`
	Active      *bool          `json:"active"`
	Variants    []VariantInput `json:"variants"`
}

type CatalogPage struct {
	Items    []model.Product `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type ProductService interface {
	ListCatalog(filter repository.ProductFilter) (*CatalogPage, error)
	GetProduct(id uint, includeInactive bool) (*model.Product, error)
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
	DeactivateProduct(id uint) error
	Restock(variantID uint, quantity int) (*model.Variant, error)
	ImageUploadURL(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type productService struct {
	productRepo repository.ProductRepository
	storage     ObjectStorage
	strict      *bluemonday.Policy
	rich        *bluemonday.Policy
}

func NewProductService(productRepo repository.ProductRepository, objectStorage ObjectStorage) ProductService {
	return &productService{
		productRepo: productRepo,
		storage:     objectStorage,
		strict:      bluemonday.StrictPolicy(),
		rich:        bluemonday.UGCPolicy(),
	}
}

func (s *productService) ListCatalog(filter repository.ProductFilter) (*CatalogPage, error) {
	filter.Normalize()
	logger.Debug("Listing catalog", map[string]interface{}{
		"active_only": filter.ActiveOnly,
		"search":      filter.Search,
		"page":        filter.Page,
		"page_size":   filter.PageSize,
	})

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list catalog", err)
		return nil, err
	}
	return &CatalogPage{
		Items:    products,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// GetProduct hides inactive products unless includeInactive is set.
func (s *productService) GetProduct(id uint, includeInactive bool) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	if !product.Active && !includeInactive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	product, variants, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if v.ID != 0 {
			return nil, fmt.Errorf("%w: new products cannot reference existing variants", ErrInvalidProduct)
		}
	}
	product.Variants = variants
	if input.Active == nil {
		product.Active = true
	}

	logger.Info("Creating product", map[string]interface{}{
		"name":     product.Name,
		"brand":    product.Brand,
		"variants": len(variants),
	})

	if err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrVariantExists
		}
		return nil, err
	}
	return s.productRepo.FindByID(product.ID)
}

// UpdateProduct replaces the product fields and reconciles variants:
// listed ids are updated, entries without id are created, the rest deleted.
func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	current, err := s.GetProduct(id, true)
	if err != nil {
		return nil, err
	}

	product, variants, err := s.buildProduct(input)
	if err != nil {
		return nil, err
	}
	product.ID = current.ID
	if input.Active == nil {
		product.Active = current.Active
	}

	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
		"variants":   len(variants),
	})

	if err := s.productRepo.Update(product, variants); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			logger.Warn("Product update referenced a foreign variant", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrVariantNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrVariantExists
		}
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return s.productRepo.FindByID(id)
}

func (s *productService) DeactivateProduct(id uint) error {
	if err := s.productRepo.Deactivate(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	logger.Info("Product deactivated", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *productService) Restock(variantID uint, quantity int) (*model.Variant, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	variant, err := s.productRepo.Restock(variantID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}

	logger.Info("Variant restocked", map[string]interface{}{
		"variant_id": variantID,
		"quantity":   quantity,
		"stock":      variant.Stock,
	})
	return variant, nil
}

func (s *productService) ImageUploadURL(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if err := storage.ValidateContentType(contentType, allowedImageTypes); err != nil {
		return nil, ErrInvalidImage
	}
	resp, err := s.storage.GeneratePresignedURLWithFolder(ctx, filename, contentType, productImageFolder)
	if err != nil {
		logger.Error("Failed to presign product image upload", err, map[string]interface{}{
			"filename": filename,
		})
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return resp, nil
}

func (s *productService) buildProduct(input ProductInput) (*model.Product, []model.Variant, error) {
	name := strings.TrimSpace(s.strict.Sanitize(input.Name))
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	category := model.ProductCategory(input.Category)
	if !category.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, input.Category)
	}
	brand := model.ProductBrand(input.Brand)
	if !brand.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown brand %q", ErrInvalidProduct, input.Brand)
	}
	if input.Price <= 0 {
		return nil, nil, fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}

	seen := make(map[string]bool, len(input.Variants))
	variants := make([]model.Variant, 0, len(input.Variants))
	for _, v := range input.Variants {
		size := strings.TrimSpace(s.strict.Sanitize(v.Size))
		color := strings.TrimSpace(s.strict.Sanitize(v.Color))
		if size == "" || color == "" {
			return nil, nil, fmt.Errorf("%w: variant size and color are required", ErrInvalidProduct)
		}
		if v.Stock < 0 {
			return nil, nil, fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
		}
		key := strings.ToLower(size + "/" + color)
		if seen[key] {
			return nil, nil, ErrVariantExists
		}
		seen[key] = true
		variants = append(variants, model.Variant{ID: v.ID, Size: size, Color: color, Stock: v.Stock})
	}

	product := &model.Product{
		Name:        name,
		Category:    category,
		Brand:       brand,
		Price:       input.Price,
		Description: strings.TrimSpace(s.rich.Sanitize(input.Description)),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	return product, variants, nil
}
