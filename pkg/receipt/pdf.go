package receipt

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ikkim/moda-backend/pkg/util"
)

// PDFRenderer lays a Document out on a single A4 page with fpdf core fonts.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

var lineColumns = []struct {
	title string
	width float64
	align string
}{
	{"Producto", 80, "L"},
	{"Talla/Color", 35, "L"},
	{"Cant.", 15, "C"},
	{"Precio", 25, "R"},
	{"Subtotal", 25, "R"},
}

func (r *PDFRenderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Boleta "+doc.OrderNumber, true)
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Core fonts are cp1252; accents in product names need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.StoreName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Comprobante de compra"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	meta := [][2]string{
		{"Orden", doc.OrderNumber},
		{"Fecha", doc.IssuedAt.Format("02-01-2006 15:04")},
		{"Cliente", doc.CustomerEmail},
		{"Despacho", doc.ShippingMethod},
		{"Dirección", doc.ShippingAddress},
		{"Estado", doc.Status},
	}
	for _, kv := range meta {
		if kv[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range lineColumns {
		pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.Lines {
		values := []string{
			line.ProductName,
			line.SizeColor,
			fmt.Sprintf("%d", line.Quantity),
			util.FormatCLP(line.UnitPrice),
			util.FormatCLP(line.Subtotal()),
		}
		for i, col := range lineColumns {
			pdf.CellFormat(col.width, 7, tr(values[i]), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	totals := [][2]string{
		{"Subtotal", util.FormatCLP(doc.Subtotal)},
		{"Envío", util.FormatCLP(doc.ShippingCost)},
		{"Total", util.FormatCLP(doc.Total)},
	}
	for i, kv := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(155, 7, tr(kv[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, kv[1], "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", doc.OrderNumber, err)
	}
	return buf.Bytes(), nil
}
