package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/app/service"
	apperrors "github.com/ikkim/moda-backend/internal/errors"
	"github.com/ikkim/moda-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

func parsePrice(raw string) *int64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// catalogFilter reads the storefront filters from the query string.
// Unknown categories and brands are ignored.
func catalogFilter(c *gin.Context) repository.ProductFilter {
	filter := repository.ProductFilter{
		Search:   c.Query("q"),
		MinPrice: parsePrice(c.Query("min_price")),
		MaxPrice: parsePrice(c.Query("max_price")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
	if category := model.ProductCategory(c.Query("category")); category.Valid() {
		filter.Category = &category
	}
	if brand := model.ProductBrand(c.Query("brand")); brand.Valid() {
		filter.Brand = &brand
	}
	return filter
}

// ListProducts returns the active catalog
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := catalogFilter(c)
	filter.ActiveOnly = true

	page, err := ctrl.productService.ListCatalog(filter)
	if err != nil {
		respondError(c, log, err, "list products", nil)
		return
	}

	log.Info("Catalog fetched", map[string]interface{}{
		"count": len(page.Items),
		"total": page.Total,
	})
	c.JSON(http.StatusOK, page)
}

// GetProduct returns an active product with its variants
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	ctrl.getProduct(c, false)
}

// AdminListProducts lists every product, inactive included
// GET /api/v1/admin/products
func (ctrl *ProductController) AdminListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, err := ctrl.productService.ListCatalog(catalogFilter(c))
	if err != nil {
		respondError(c, log, err, "list products", nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminGetProduct
// GET /api/v1/admin/products/:id
func (ctrl *ProductController) AdminGetProduct(c *gin.Context) {
	ctrl.getProduct(c, true)
}

func (ctrl *ProductController) getProduct(c *gin.Context, includeInactive bool) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(id, includeInactive)
	if err != nil {
		respondError(c, log, err, "get product", map[string]interface{}{
			"product_id": id,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Los datos del producto no son válidos")
		return
	}

	product, err := ctrl.productService.CreateProduct(req)
	if err != nil {
		respondError(c, log, err, "create product", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct replaces the product fields and its variant set
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Los datos del producto no son válidos")
		return
	}

	product, err := ctrl.productService.UpdateProduct(id, req)
	if err != nil {
		respondError(c, log, err, "update product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	log.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeactivateProduct hides a product from the storefront
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeactivateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeactivateProduct(id); err != nil {
		respondError(c, log, err, "deactivate product", map[string]interface{}{
			"product_id": id,
		})
		return
	}

	log.Info("Product deactivated", map[string]interface{}{
		"product_id": id,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Producto desactivado"})
}

// Restock adds units to a variant
// POST /api/v1/admin/variants/:id/restock
func (ctrl *ProductController) Restock(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "La cantidad debe ser mayor a cero")
		return
	}

	variant, err := ctrl.productService.Restock(id, req.Quantity)
	if err != nil {
		respondError(c, log, err, "restock variant", map[string]interface{}{
			"variant_id": id,
		})
		return
	}

	log.Info("Variant restocked", map[string]interface{}{
		"variant_id": id,
		"quantity":   req.Quantity,
		"stock":      variant.Stock,
	})
	c.JSON(http.StatusOK, gin.H{"variant": variant})
}
