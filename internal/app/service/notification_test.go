package service

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notifiedOrder(status model.OrderStatus, shippingCost int64) *model.Order {
	return &model.Order{
		ID:              7,
		OrderNumber:     "MODA1760870400K3Q9ZD",
		Email:           "cliente@moda.cl",
		Subtotal:        2000,
		ShippingCost:    shippingCost,
		Total:           2000 + shippingCost,
		ShippingAddress: "Av. Providencia #1234, Providencia",
		Status:          status,
		TrackingCode:    "CX123456CL",
	}
}

func parseBody(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestComposeStatusEmail_PaymentConfirmed(t *testing.T) {
	subject, body, ok, err := composeStatusEmail("MODA", notifiedOrder(model.OrderStatusConfirmed, CourierShippingCost))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "Pago confirmado - Pedido MODA1760870400K3Q9ZD", subject)
	doc := parseBody(t, body)
	assert.Equal(t, "MODA", doc.Find("h1.store").Text())
	assert.Equal(t, "MODA1760870400K3Q9ZD", doc.Find(".order-number").Text())
	assert.Equal(t, "$7.990", doc.Find(".total").Text())
}

func TestComposeStatusEmail_ShippedTemplates(t *testing.T) {
	_, courier, ok, err := composeStatusEmail("MODA", notifiedOrder(model.OrderStatusShipped, CourierShippingCost))
	require.NoError(t, err)
	require.True(t, ok)
	doc := parseBody(t, courier)
	assert.Equal(t, "CX123456CL", doc.Find(".tracking-code").Text())
	assert.Zero(t, doc.Find(".delivery-address").Length())

	_, flash, ok, err := composeStatusEmail("MODA", notifiedOrder(model.OrderStatusShipped, FlashShippingCost))
	require.NoError(t, err)
	require.True(t, ok)
	doc = parseBody(t, flash)
	assert.Equal(t, "Av. Providencia #1234, Providencia", doc.Find(".delivery-address").Text())
	assert.Zero(t, doc.Find(".tracking-code").Length())
}

func TestComposeStatusEmail_Delivered(t *testing.T) {
	subject, body, ok, err := composeStatusEmail("MODA", notifiedOrder(model.OrderStatusDelivered, FlashShippingCost))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, subject, "entregado")
	assert.Contains(t, parseBody(t, body).Text(), "fue entregado")
}

func TestComposeStatusEmail_SilentStatuses(t *testing.T) {
	for _, status := range []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusPicking,
		model.OrderStatusPacking,
		model.OrderStatusCancelled,
	} {
		_, _, ok, err := composeStatusEmail("MODA", notifiedOrder(status, CourierShippingCost))
		require.NoError(t, err)
		assert.False(t, ok, status)
	}
}

func TestComposeStatusEmail_EscapesAddress(t *testing.T) {
	order := notifiedOrder(model.OrderStatusShipped, FlashShippingCost)
	order.ShippingAddress = `<script>alert("x")</script> #1, Santiago`

	_, body, _, err := composeStatusEmail("MODA", order)
	require.NoError(t, err)
	doc := parseBody(t, body)
	assert.Zero(t, doc.Find("script").Length())
	assert.Contains(t, doc.Find(".delivery-address").Text(), "<script>")
}
