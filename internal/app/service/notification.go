package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/mailer"
	"github.com/ikkim/moda-backend/pkg/util"
)

const (
	templatePaymentConfirmed = "payment_confirmed"
	templateShippedCourier   = "shipped_courier"
	templateShippedFlash     = "shipped_flash"
	templateDelivered        = "delivered"
)

var statusTemplates = template.Must(template.New("notifications").Funcs(template.FuncMap{
	"clp": util.FormatCLP,
}).Parse(`
{{define "header"}}<!DOCTYPE html><html><body style="font-family:Helvetica,Arial,sans-serif;color:#222">
<h1 class="store">{{.StoreName}}</h1>{{end}}
{{define "footer"}}<p class="footer">Gracias por comprar en {{.StoreName}}.</p></body></html>{{end}}

{{define "payment_confirmed"}}{{template "header" .}}
<p>Hemos recibido el pago de tu pedido <strong class="order-number">{{.Order.OrderNumber}}</strong>.</p>
<p>Total pagado: <span class="total">{{clp .Order.Total}}</span></p>
<p>Te avisaremos cuando tu pedido sea despachado.</p>
{{template "footer" .}}{{end}}

{{define "shipped_courier"}}{{template "header" .}}
<p>Tu pedido <strong class="order-number">{{.Order.OrderNumber}}</strong> fue entregado a Courier Nacional.</p>
<p>Código de seguimiento: <span class="tracking-code">{{.Order.TrackingCode}}</span></p>
{{template "footer" .}}{{end}}

{{define "shipped_flash"}}{{template "header" .}}
<p>Tu pedido <strong class="order-number">{{.Order.OrderNumber}}</strong> sale hoy con Flash Local.</p>
<p>Lo entregaremos en <span class="delivery-address">{{.Order.ShippingAddress}}</span>.</p>
{{template "footer" .}}{{end}}

{{define "delivered"}}{{template "header" .}}
<p>Tu pedido <strong class="order-number">{{.Order.OrderNumber}}</strong> fue entregado.</p>
<p>Esperamos que disfrutes tu compra.</p>
{{template "footer" .}}{{end}}
`))

type notificationData struct {
	StoreName string
	Order     *model.Order
}

// composeStatusEmail renders the email for the order's current status.
// ok is false for statuses that do not notify the customer.
func composeStatusEmail(storeName string, order *model.Order) (subject, body string, ok bool, err error) {
	var name string
	switch order.Status {
	case model.OrderStatusConfirmed:
		name = templatePaymentConfirmed
		subject = fmt.Sprintf("Pago confirmado - Pedido %s", order.OrderNumber)
	case model.OrderStatusShipped:
		if order.ShippingCost == CourierShippingCost {
			name = templateShippedCourier
		} else {
			name = templateShippedFlash
		}
		subject = fmt.Sprintf("Tu pedido %s va en camino", order.OrderNumber)
	case model.OrderStatusDelivered:
		name = templateDelivered
		subject = fmt.Sprintf("Pedido %s entregado", order.OrderNumber)
	default:
		return "", "", false, nil
	}

	var buf bytes.Buffer
	if err := statusTemplates.ExecuteTemplate(&buf, name, notificationData{StoreName: storeName, Order: order}); err != nil {
		return "", "", false, fmt.Errorf("render %s: %w", name, err)
	}
	return subject, buf.String(), true, nil
}

// OrderNotifier emails the customer about a status change. Delivery is
// single-attempt and bounded by a timeout; every attempt is recorded in
// the notification log and failures are never returned to the caller.
type OrderNotifier interface {
	NotifyStatus(ctx context.Context, order *model.Order)
}

type orderNotifier struct {
	mailer    mailer.Mailer
	logs      repository.NotificationRepository
	storeName string
	timeout   time.Duration
}

func NewOrderNotifier(m mailer.Mailer, logs repository.NotificationRepository, storeName string, timeout time.Duration) OrderNotifier {
	return &orderNotifier{
		mailer:    m,
		logs:      logs,
		storeName: storeName,
		timeout:   timeout,
	}
}

func (n *orderNotifier) NotifyStatus(ctx context.Context, order *model.Order) {
	if order.Email == "" {
		logger.Debug("Skipping notification: order has no email", map[string]interface{}{
			"order_id": order.ID,
		})
		return
	}

	subject, body, ok, err := composeStatusEmail(n.storeName, order)
	if err != nil {
		logger.Error("Failed to render status notification", err, map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
		})
		return
	}
	if !ok {
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	sendErr := n.mailer.Send(sendCtx, mailer.Message{
		To:       []string{order.Email},
		Subject:  subject,
		HTMLBody: body,
	})

	entry := &model.NotificationLog{
		OrderID:   order.ID,
		Status:    order.Status,
		Recipient: order.Email,
		Subject:   subject,
		Delivered: sendErr == nil,
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
		logger.Warn("Status notification not delivered", map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
			"error":    sendErr.Error(),
		})
	} else {
		logger.Info("Status notification sent", map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
		})
	}

	if err := n.logs.Create(entry); err != nil {
		logger.Error("Failed to record notification", err, map[string]interface{}{
			"order_id": order.ID,
		})
	}
}
