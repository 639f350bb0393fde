package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

const agingSheetName = "AP Aging"

type ExcelExporter interface {
	GetCellValues() []interface{}
}

func (d *APAgingDetail) GetCellValues() []interface{} {
	var invoiceDate string
	if d.InvoiceDate != nil {
		invoiceDate = d.InvoiceDate.Format("2006-01-02")
	}
	return []interface{}{
		d.InvoiceNumber,
		utils.DereferencePtr(d.SupplierName, ""),
		invoiceDate,
		d.DueDate.Format("2006-01-02"),
		d.DaysPastDue,
		string(d.Status),
		d.TotalAmount.InexactFloat64(),
		d.OutstandingAmount.InexactFloat64(),
	}
}

// writeRows writes headings on row startRow and one row per item below. Returns the next free row.
func writeRows(f *excelize.File, sheetName string, startRow int, data []ExcelExporter, headings ...string) (int, error) {
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, startRow)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return 0, err
		}
	}
	rowNo := startRow + 1
	for _, d := range data {
		for i, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return 0, err
			}
		}
		rowNo++
	}
	return rowNo, nil
}

// ExportAPAgingReport writes the aging report as an xlsx workbook, one block per bucket.
func ExportAPAgingReport(ctx context.Context, asOf time.Time, w io.Writer) error {
	report, err := GetAPAgingReport(ctx, asOf)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", agingSheetName); err != nil {
		return err
	}
	if err := f.SetCellValue(agingSheetName, "A1", "AP Aging as of "+asOf.Format("2006-01-02")); err != nil {
		return err
	}

	rowNo := 3
	for _, bucket := range report.Buckets {
		title := fmt.Sprintf("%s days: %d invoice(s), outstanding %s", bucket.Range, bucket.Count, bucket.TotalOutstanding.StringFixed(2))
		if err := f.SetCellValue(agingSheetName, fmt.Sprintf("A%d", rowNo), title); err != nil {
			return err
		}
		data := make([]ExcelExporter, 0, len(bucket.Invoices))
		for _, d := range bucket.Invoices {
			data = append(data, d)
		}
		next, err := writeRows(f, agingSheetName, rowNo+1, data,
			"InvoiceNumber", "Supplier", "InvoiceDate", "DueDate", "DaysPastDue", "Status", "TotalAmount", "OutstandingAmount")
		if err != nil {
			return err
		}
		rowNo = next + 1
	}

	_, err = f.WriteTo(w)
	return err
}
