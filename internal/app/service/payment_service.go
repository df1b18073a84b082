package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/mailer"
)

// PaymentService simulates the payment gateway: paying an order confirms
// it and emails the PDF receipt.
type PaymentService interface {
	ConfirmPayment(ctx context.Context, userID, orderID uint) (*model.Order, error)
}

type paymentService struct {
	orders      OrderService
	receipts    ReceiptService
	mailer      mailer.Mailer
	sendTimeout time.Duration
	now         func() time.Time
}

func NewPaymentService(
	orders OrderService,
	receipts ReceiptService,
	m mailer.Mailer,
	sendTimeout time.Duration,
) PaymentService {
	return &paymentService{
		orders:      orders,
		receipts:    receipts,
		mailer:      m,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

func (s *paymentService) ConfirmPayment(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	logger.Info("Confirming payment", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	paid, err := s.orders.ConfirmPayment(ctx, userID, orderID, s.now())
	if err != nil {
		return nil, err
	}

	s.sendReceipt(ctx, paid)

	logger.Info("Payment confirmed", map[string]interface{}{
		"order_id": orderID,
		"total":    paid.Total,
	})
	return paid, nil
}

// sendReceipt emails the PDF receipt. Failures are logged only.
func (s *paymentService) sendReceipt(ctx context.Context, order *model.Order) {
	if order.Email == "" {
		return
	}

	pdf, err := s.receipts.Render(order)
	if err != nil {
		logger.Warn("Receipt not sent: render failed", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return
	}

	body, err := s.receipts.EmailBody(order)
	if err != nil {
		logger.Warn("Receipt email body failed, sending short body", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		body = fmt.Sprintf("<p>Adjuntamos la boleta de tu pedido <strong>%s</strong>.</p>", order.OrderNumber)
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
	defer cancel()

	err = s.mailer.Send(sendCtx, mailer.Message{
		To:       []string{order.Email},
		Subject:  fmt.Sprintf("Boleta de tu pedido %s", order.OrderNumber),
		HTMLBody: body,
		Attachments: []mailer.Attachment{{
			Filename:    s.receipts.Filename(order),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	})
	if err != nil {
		logger.Warn("Receipt email not delivered", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return
	}
	logger.Info("Receipt emailed", map[string]interface{}{
		"order_id": order.ID,
	})
}
