package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"arstatements/internal/statement"
)

const workbookSheet = "Estado de Cuenta"

var workbookHeaders = []interface{}{
	"Código Cliente", "Nombre del Cliente", "No. Factura", "Fecha Factura", "Fecha Vencimiento",
	"Recibo", "Moneda", "Importe", "Saldo", "Días de Atraso",
}

// WriteWorkbook writes the spreadsheet companion of a statement to path.
func (b *StatementBuilder) WriteWorkbook(path string, group statement.CurrencyGroup, client statement.ClientGroup) error {
	if !group.Currency.Known() {
		return &statement.UnknownCurrencyError{ClientCode: client.ClientCode, Currency: group.Currency}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(workbookSheet, "A1", &workbookHeaders); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	boldMoney, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(workbookSheet, "A1", "J1", bold)

	label := b.CurrencyLabel(group.Currency)
	for i, l := range group.Lines {
		row := i + 2
		values := []interface{}{
			client.ClientCode,
			client.ClientName,
			l.InvoiceNumber,
			l.InvoiceDate.Format(dateLayout),
			l.DueDate.Format(dateLayout),
			l.ReceiptReference,
			label,
			l.Amount.InexactFloat64(),
			l.RunningBalance.InexactFloat64(),
			l.DaysOverdue,
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(workbookSheet, cell, &values); err != nil {
			return err
		}
		_ = f.SetCellStyle(workbookSheet, fmt.Sprintf("H%d", row), fmt.Sprintf("I%d", row), money)
	}

	totalRow := len(group.Lines) + 3
	_ = f.SetCellValue(workbookSheet, fmt.Sprintf("G%d", totalRow), "Total "+label+":")
	_ = f.SetCellValue(workbookSheet, fmt.Sprintf("H%d", totalRow), group.Total().InexactFloat64())
	_ = f.SetCellStyle(workbookSheet, fmt.Sprintf("G%d", totalRow), fmt.Sprintf("G%d", totalRow), bold)
	_ = f.SetCellStyle(workbookSheet, fmt.Sprintf("H%d", totalRow), fmt.Sprintf("H%d", totalRow), boldMoney)

	_ = f.SetColWidth(workbookSheet, "A", "A", 14)
	_ = f.SetColWidth(workbookSheet, "B", "B", 40)
	_ = f.SetColWidth(workbookSheet, "C", "G", 16)
	_ = f.SetColWidth(workbookSheet, "H", "I", 18)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write workbook %s: %w", path, err)
	}
	return nil
}
