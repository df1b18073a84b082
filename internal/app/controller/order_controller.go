package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/app/service"
	apperrors "github.com/ikkim/moda-backend/internal/errors"
	"github.com/ikkim/moda-backend/internal/middleware"
)

type OrderController struct {
	orderService   service.OrderService
	receiptService service.ReceiptService
}

func NewOrderController(orderService service.OrderService, receiptService service.ReceiptService) *OrderController {
	return &OrderController{
		orderService:   orderService,
		receiptService: receiptService,
	}
}

type CheckoutRequest struct {
	AddressID      uint   `json:"address_id" binding:"required"`
	ShippingMethod string `json:"shipping_method" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
}

type UpdateOrderStatusRequest struct {
	Status       model.OrderStatus `json:"status" binding:"required"`
	TrackingCode string            `json:"tracking_code"`
}

// ShippingMethods lists the selectable shipping rates
// GET /api/v1/shipping-methods
func (ctrl *OrderController) ShippingMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shipping_methods": service.ShippingMethods()})
}

// Checkout turns the cart into a pending order
// POST /api/v1/orders
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Debes indicar la dirección y el método de envío")
		return
	}

	email := req.Email
	if email == "" {
		email, _ = middleware.GetUserEmail(c)
	}

	order, err := ctrl.orderService.Checkout(c.Request.Context(), userID, service.CheckoutRequest{
		AddressID:      req.AddressID,
		ShippingMethod: req.ShippingMethod,
		Email:          email,
	})
	if err != nil {
		respondError(c, log, err, "checkout", map[string]interface{}{
			"user_id":    userID,
			"address_id": req.AddressID,
		})
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListMyOrders
// GET /api/v1/orders
func (ctrl *OrderController) ListMyOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListUserOrders(userID)
	if err != nil {
		respondError(c, log, err, "list orders", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetMyOrder
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetMyOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetUserOrder(userID, orderID)
	if err != nil {
		respondError(c, log, err, "get order", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// DownloadReceipt streams the PDF receipt to the owner or to staff
// GET /api/v1/orders/:id/receipt
func (ctrl *OrderController) DownloadReceipt(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	var (
		order *model.Order
		err   error
	)
	if middleware.IsStaff(c) {
		order, err = ctrl.orderService.GetOrder(orderID)
	} else {
		order, err = ctrl.orderService.GetUserOrder(userID, orderID)
	}
	if err != nil {
		respondError(c, log, err, "get order", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return
	}

	pdf, err := ctrl.receiptService.Render(order)
	if err != nil {
		if errors.Is(err, service.ErrExternalService) {
			log.Error("Receipt rendering failed", err, map[string]interface{}{
				"order_id": orderID,
			})
			apperrors.BadGateway(c, apperrors.ReceiptGenerationFailed, "No pudimos generar la boleta. Inténtalo nuevamente")
			return
		}
		respondError(c, log, err, "render receipt", map[string]interface{}{
			"order_id": orderID,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ctrl.receiptService.Filename(order)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// AdminListOrders lists orders with an optional status filter
// GET /api/v1/admin/orders
func (ctrl *OrderController) AdminListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.OrderFilter{
		Search:   c.Query("q"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := model.OrderStatus(raw)
		if !status.Valid() {
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "El estado no existe")
			return
		}
		filter.Status = &status
	}

	orders, total, err := ctrl.orderService.ListOrders(filter)
	if err != nil {
		respondError(c, log, err, "list orders", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   filter.Page,
	})
}

// AdminGetOrder
// GET /api/v1/admin/orders/:id
func (ctrl *OrderController) AdminGetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(orderID)
	if err != nil {
		respondError(c, log, err, "get order", map[string]interface{}{
			"order_id": orderID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order through fulfillment
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Debes indicar el nuevo estado")
		return
	}

	order, err := ctrl.orderService.SetStatus(c.Request.Context(), orderID, req.Status, req.TrackingCode)
	if err != nil {
		respondError(c, log, err, "update order status", map[string]interface{}{
			"order_id": orderID,
			"status":   req.Status,
		})
		return
	}

	staffID, _ := middleware.GetUserID(c)
	log.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
		"staff_id": staffID,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}
