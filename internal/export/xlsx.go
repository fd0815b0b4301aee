package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Freight"

var xlsxHeaders = []string{
	"File",
	"Document Type",
	"Shipper",
	"Shipper Address",
	"Consignee",
	"Consignee Address",
	"Bill To",
	"Bill To Address",
	"BOL",
	"PRO",
	"PO",
	"Pickup Date",
	"Delivery Date",
	"Weight (lbs)",
	"Quantity",
	"Pieces",
	"Handwritten Notes",
	"Ready",
}

// renderXLSX builds one workbook with a row per document.
func renderXLSX(items []Item) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}

	r := 2
	for _, it := range items {
		d := it.Document
		if d == nil {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(xlsxSheet, cell, v)
		}
		bt := billTo(d)

		write(1, it.Name)
		write(2, string(d.DocumentType))
		write(3, str(d.Shipper.Name))
		write(4, str(d.Shipper.Address))
		write(5, str(d.Consignee.Name))
		write(6, str(d.Consignee.Address))
		write(7, str(bt.Name))
		write(8, str(bt.Address))
		write(9, str(d.References.BOL))
		write(10, str(d.References.PRO))
		write(11, str(d.References.PO))
		write(12, str(d.Dates.Pickup))
		write(13, str(d.Dates.Delivery))
		// numbers stay numeric so the sheet can sum them
		for col, p := range map[int]*float64{14: d.WeightLbs, 15: d.Quantity, 16: d.Pieces} {
			if p != nil {
				write(col, *p)
			}
		}
		write(17, truncate(str(d.HandwrittenNotes), 500))
		write(18, d.ReadyForExport)
		r++
	}

	_ = f.SetColWidth(xlsxSheet, "A", "A", 28) // file
	_ = f.SetColWidth(xlsxSheet, "B", "B", 20) // type
	_ = f.SetColWidth(xlsxSheet, "C", "H", 32) // parties
	_ = f.SetColWidth(xlsxSheet, "I", "M", 16) // references, dates
	_ = f.SetColWidth(xlsxSheet, "N", "P", 12) // quantities
	_ = f.SetColWidth(xlsxSheet, "Q", "Q", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
