package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/pkg/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiptOrder() *model.Order {
	paidAt := time.Date(2026, 10, 19, 15, 4, 0, 0, time.UTC)
	return &model.Order{
		ID:              3,
		OrderNumber:     "MODA1760870400K3Q9ZD",
		Email:           "cliente@moda.cl",
		Subtotal:        2000,
		ShippingCost:    CourierShippingCost,
		Total:           7990,
		ShippingMethod:  "Courier Nacional",
		ShippingAddress: "Av. Providencia #1234, Providencia",
		Status:          model.OrderStatusConfirmed,
		PaidAt:          &paidAt,
		OrderItems: []model.OrderItem{
			{ProductName: "Polera Logo", SizeColor: "M/Negro", Quantity: 2, UnitPrice: 1000},
		},
	}
}

func TestReceiptService_Render(t *testing.T) {
	receipts := NewReceiptService(receipt.NewPDFRenderer(), "MODA")

	pdf, err := receipts.Render(receiptOrder())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, "boleta-MODA1760870400K3Q9ZD.pdf", receipts.Filename(receiptOrder()))
}

func TestReceiptService_EmailBody(t *testing.T) {
	receipts := NewReceiptService(failingRenderer{}, "MODA")

	body, err := receipts.EmailBody(receiptOrder())
	require.NoError(t, err)
	assert.Contains(t, body, "MODA1760870400K3Q9ZD")
	assert.Contains(t, body, "<h2>MODA</h2>")
}

func TestReceiptService_RenderFailure(t *testing.T) {
	receipts := NewReceiptService(failingRenderer{}, "MODA")

	_, err := receipts.Render(receiptOrder())
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestReceiptDocument(t *testing.T) {
	order := receiptOrder()
	doc := receiptDocument("MODA", order, time.Now())

	assert.Equal(t, *order.PaidAt, doc.IssuedAt)
	assert.Equal(t, "Pago confirmado", doc.Status)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, int64(2000), doc.Lines[0].Subtotal())
	assert.Equal(t, int64(7990), doc.Total)
}
