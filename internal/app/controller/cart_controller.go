package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/service"
	apperrors "github.com/ikkim/moda-backend/internal/errors"
	"github.com/ikkim/moda-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

// AddToCartRequest adds one unit when quantity is omitted.
type AddToCartRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  *int `json:"quantity,omitempty"`
}

type UpdateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		respondError(c, log, err, "get cart", map[string]interface{}{
			"user_id": userID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// AddItem adds units of a variant, merging with an existing line
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Debes indicar la variante")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := ctrl.cartService.AddItem(userID, req.VariantID, quantity)
	if err != nil {
		respondError(c, log, err, "add cart item", map[string]interface{}{
			"user_id":    userID,
			"variant_id": req.VariantID,
			"quantity":   quantity,
		})
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"variant_id": req.VariantID,
	})
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// UpdateItem sets the quantity of a line; zero or less removes it
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Debes indicar la cantidad")
		return
	}

	cart, err := ctrl.cartService.SetQuantity(userID, itemID, *req.Quantity)
	if err != nil {
		respondError(c, log, err, "update cart item", map[string]interface{}{
			"user_id": userID,
			"item_id": itemID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveItem
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveItem(userID, itemID)
	if err != nil {
		respondError(c, log, err, "remove cart item", map[string]interface{}{
			"user_id": userID,
			"item_id": itemID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}
