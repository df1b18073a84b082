package receipt

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ikkim/moda-backend/pkg/util"
)

var emailTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"clp": util.FormatCLP,
}).Parse(`<div class="receipt">
<h2>{{.StoreName}}</h2>
<p>Hemos confirmado el pago de tu orden <strong class="order-number">{{.OrderNumber}}</strong>. Adjuntamos tu comprobante en PDF.</p>
<table class="lines">
<thead><tr><th>Producto</th><th>Talla/Color</th><th>Cant.</th><th>Subtotal</th></tr></thead>
<tbody>
{{range .Lines}}<tr class="line"><td>{{.ProductName}}</td><td>{{.SizeColor}}</td><td>{{.Quantity}}</td><td>{{clp .Subtotal}}</td></tr>
{{end}}</tbody>
</table>
<p>Envío ({{.ShippingMethod}}): {{clp .ShippingCost}}</p>
<p class="total">Total: {{clp .Total}}</p>
</div>`))

// HTML renders the email body that accompanies the PDF receipt.
func HTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render receipt email %s: %w", doc.OrderNumber, err)
	}
	return buf.String(), nil
}
