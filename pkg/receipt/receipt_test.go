package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		StoreName:       "MODA",
		OrderNumber:     "MODA1760870400K3Q9ZD",
		IssuedAt:        time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC),
		CustomerEmail:   "cliente@moda.cl",
		ShippingAddress: "Av. Providencia #1234, Providencia",
		ShippingMethod:  "Courier Nacional",
		Status:          "Pago confirmado",
		Lines: []Line{
			{ProductName: "Polerón Guess", SizeColor: "M/Negro", Quantity: 2, UnitPrice: 1000},
		},
		Subtotal:     2000,
		ShippingCost: 5990,
		Total:        7990,
	}
}

func TestPDFRenderer_Render(t *testing.T) {
	pdf, err := NewPDFRenderer().Render(sampleDocument())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, string(bytes.TrimSpace(pdf[len(pdf)-16:])), "%%EOF")
}

func TestPDFRenderer_EmptyLines(t *testing.T) {
	doc := sampleDocument()
	doc.Lines = nil
	pdf, err := NewPDFRenderer().Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestHTML(t *testing.T) {
	body, err := HTML(sampleDocument())
	require.NoError(t, err)

	dom, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "MODA1760870400K3Q9ZD", dom.Find(".order-number").Text())
	assert.Equal(t, 1, dom.Find("tr.line").Length())
	assert.Equal(t, "$2.000", dom.Find("tr.line td").Last().Text())
	assert.Equal(t, "Total: $7.990", dom.Find(".total").Text())
}

func TestHTML_EscapesProductNames(t *testing.T) {
	doc := sampleDocument()
	doc.Lines[0].ProductName = "<script>alert(1)</script>"

	body, err := HTML(doc)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}
