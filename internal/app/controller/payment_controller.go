package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// ConfirmPayment simulates a successful payment of a pending order
// POST /api/v1/orders/:id/pay
func (ctrl *PaymentController) ConfirmPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, log, "id")
	if !ok {
		return
	}

	order, err := ctrl.paymentService.ConfirmPayment(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, log, err, "confirm payment", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return
	}

	log.Info("Payment confirmed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}
