package service

import (
	"fmt"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/receipt"
)

type ReceiptService interface {
	Render(order *model.Order) ([]byte, error)
	EmailBody(order *model.Order) (string, error)
	Filename(order *model.Order) string
}

type receiptService struct {
	renderer  receipt.Renderer
	storeName string
	now       func() time.Time
}

func NewReceiptService(renderer receipt.Renderer, storeName string) ReceiptService {
	return &receiptService{
		renderer:  renderer,
		storeName: storeName,
		now:       time.Now,
	}
}

// Render produces the PDF receipt from the order snapshot. Renderer
// failures surface as ErrExternalService.
func (s *receiptService) Render(order *model.Order) ([]byte, error) {
	doc := receiptDocument(s.storeName, order, s.now())

	pdf, err := s.renderer.Render(doc)
	if err != nil {
		logger.Error("Failed to render receipt", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return nil, fmt.Errorf("%w: receipt: %v", ErrExternalService, err)
	}

	logger.Debug("Receipt rendered", map[string]interface{}{
		"order_id": order.ID,
		"bytes":    len(pdf),
	})
	return pdf, nil
}

// EmailBody renders the HTML summary sent along with the PDF.
func (s *receiptService) EmailBody(order *model.Order) (string, error) {
	return receipt.HTML(receiptDocument(s.storeName, order, s.now()))
}

func (s *receiptService) Filename(order *model.Order) string {
	return fmt.Sprintf("boleta-%s.pdf", order.OrderNumber)
}

func receiptDocument(storeName string, order *model.Order, issuedAt time.Time) receipt.Document {
	lines := make([]receipt.Line, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		lines = append(lines, receipt.Line{
			ProductName: item.ProductName,
			SizeColor:   item.SizeColor,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	if order.PaidAt != nil {
		issuedAt = *order.PaidAt
	}
	return receipt.Document{
		StoreName:       storeName,
		OrderNumber:     order.OrderNumber,
		IssuedAt:        issuedAt,
		CustomerEmail:   order.Email,
		ShippingAddress: order.ShippingAddress,
		ShippingMethod:  order.ShippingMethod,
		Status:          order.Status.Label(),
		Lines:           lines,
		Subtotal:        order.Subtotal,
		ShippingCost:    order.ShippingCost,
		Total:           order.Total,
	}
}
