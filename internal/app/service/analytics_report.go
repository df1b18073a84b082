package service

import (
	"context"
	"fmt"

	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	reportSheetKPI       = "KPIs"
	reportSheetTop       = "Top productos"
	reportSheetTryOn     = "Conversion try-on"
	reportSheetCustomers = "Clientes"
)

// BuildReport exports the dashboard and the customer segments as an xlsx
// workbook, one sheet per block.
func (s *analyticsService) BuildReport(ctx context.Context) ([]byte, error) {
	dashboard, err := s.computeDashboard()
	if err != nil {
		return nil, err
	}
	customers, err := s.CustomerSegments(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheetKPI); err != nil {
		return nil, err
	}
	kpis := [][]interface{}{
		{"Indicador", "Valor"},
		{"Ingresos confirmados", dashboard.Revenue},
		{"Pedidos", dashboard.OrderCount},
		{"Productos con stock crítico", dashboard.LowStockProducts},
		{"Generado", dashboard.GeneratedAt.Format("2006-01-02 15:04")},
	}
	if err := writeRows(f, reportSheetKPI, kpis); err != nil {
		return nil, err
	}

	top := [][]interface{}{{"Producto", "Unidades vendidas"}}
	for _, p := range dashboard.TopProducts {
		top = append(top, []interface{}{p.ProductName, p.Units})
	}
	if err := writeSheet(f, reportSheetTop, top); err != nil {
		return nil, err
	}

	conversion := [][]interface{}{{"Producto", "Pruebas", "Ventas", "Conversión %"}}
	for _, c := range dashboard.TryOnConversion {
		conversion = append(conversion, []interface{}{c.ProductName, c.Tries, c.Sales, c.Rate})
	}
	if err := writeSheet(f, reportSheetTryOn, conversion); err != nil {
		return nil, err
	}

	rows := [][]interface{}{{"Cliente", "Email", "Gasto", "Pedidos", "Pruebas", "Días sin comprar", "Segmento"}}
	for _, c := range customers {
		days := interface{}("")
		if c.DaysSinceLastOrder != nil {
			days = *c.DaysSinceLastOrder
		}
		rows = append(rows, []interface{}{c.Name, c.Email, c.Spend, c.Orders, c.TryOns, days, c.Segment.Label()})
	}
	if err := writeSheet(f, reportSheetCustomers, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write BI report", err)
		return nil, err
	}

	logger.Info("BI report built", map[string]interface{}{
		"customers": len(customers),
		"bytes":     buf.Len(),
	})
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
