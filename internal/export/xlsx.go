// Package export формирует XLSX-выгрузку заметок о расходах для администратора.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/billed-app/billed/internal/lib/format"
	"github.com/billed-app/billed/internal/models"
)

// SheetName имя листа с заметками.
const SheetName = "Notes de frais"

// Headers заголовки столбцов в порядке вывода.
var Headers = []string{
	"Date",
	"Employé",
	"Type",
	"Nom",
	"Montant TTC",
	"TVA",
	"%",
	"Commentaire",
	"Statut",
	"Commentaire admin",
	"Justificatif",
}

// BillsXLSX возвращает книгу XLSX со всеми заметками.
// Дата выводится как есть, если её нельзя разобрать.
func BillsXLSX(bills []*models.Bill) ([]byte, error) {
	const op = "export.BillsXLSX"

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.SetActiveSheet(index)
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, b := range bills {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		date := b.Date
		if formatted, err := format.Date(b.Date); err == nil {
			date = formatted
		}
		write(1, date)
		write(2, b.Email)
		write(3, b.Type)
		write(4, b.Name)
		write(5, b.Amount)
		write(6, b.VAT)
		write(7, b.Pct)
		write(8, b.Commentary)
		write(9, format.Status(b.Status))
		write(10, b.CommentAdmin)
		write(11, b.FileURL)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 14)
	_ = f.SetColWidth(SheetName, "B", "B", 28)
	_ = f.SetColWidth(SheetName, "C", "D", 24)
	_ = f.SetColWidth(SheetName, "H", "H", 40)
	_ = f.SetColWidth(SheetName, "J", "K", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}
