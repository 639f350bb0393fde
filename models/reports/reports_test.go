package reports

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type reportFixture struct {
	ctx      context.Context
	supplier *models.Supplier
	each     *models.Uom
	product  *models.Product
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "reports.db"))
	t.Setenv("DOCUMENT_LOCKS", "")
	t.Setenv("STRICT_CREDIT_REMAINDER", "")
	t.Setenv("PRICE_TOLERANCE", "")
	config.ConnectDatabaseWithRetry()
	t.Cleanup(func() { _ = config.CloseDatabase() })
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx := utils.SystemContext(context.Background(), "biz-reports")
	category, err := models.CreateUnitCategory(ctx, &models.NewUnitCategory{Name: "Count"})
	if err != nil {
		t.Fatalf("CreateUnitCategory: %v", err)
	}
	each, err := models.CreateUom(ctx, &models.NewUom{UnitCategoryId: category.ID, Name: "Each", ConversionRate: dec("1"), BaseUnit: true})
	if err != nil {
		t.Fatalf("CreateUom: %v", err)
	}
	terms := 30
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Northwind", PaymentTerms: &terms})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Bolt", Sku: "BLT-1", UnitCategoryId: category.ID})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return &reportFixture{ctx: ctx, supplier: supplier, each: each, product: product}
}

// receivedOrder creates a confirmed order of quantity × price and receives all of it.
func (f *reportFixture) receivedOrder(t *testing.T, quantity string, price string) *models.PurchaseOrder {
	t.Helper()
	confirmed := models.PurchaseOrderStatusConfirmed
	po, err := models.CreatePurchaseOrder(f.ctx, &models.NewPurchaseOrder{
		SupplierId: f.supplier.ID,
		OrderDate:  time.Now().UTC(),
		Status:     &confirmed,
		Details: []models.NewPurchaseOrderDetail{{
			ProductId: f.product.ID, UomId: f.each.ID, BaseUomId: f.each.ID, Quantity: dec(quantity), UnitPrice: dec(price),
		}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	line := po.Details[0]
	if _, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		PurchaseOrderId: po.ID,
		ReceivedDate:    time.Now().UTC(),
		Details: []models.NewGoodsReceiptDetail{{
			PurchaseOrderDetailId: line.ID, ProductId: line.ProductId, UomId: f.each.ID, BaseUomId: f.each.ID, QuantityReceived: dec(quantity),
		}},
	}); err != nil {
		t.Fatalf("CreateGoodsReceipt: %v", err)
	}
	return po
}

func (f *reportFixture) invoice(t *testing.T, po *models.PurchaseOrder, quantity string, price string, invoiceDate time.Time) *models.SupplierInvoice {
	t.Helper()
	posted := models.SupplierInvoiceStatusPosted
	line := po.Details[0]
	inv, err := models.CreateSupplierInvoice(f.ctx, &models.NewSupplierInvoice{
		SupplierId:      f.supplier.ID,
		PurchaseOrderId: &po.ID,
		InvoiceDate:     &invoiceDate,
		Status:          &posted,
		Details: []models.NewSupplierInvoiceDetail{{
			PurchaseOrderDetailId: line.ID, ProductId: line.ProductId, UomId: f.each.ID, BaseUomId: f.each.ID,
			Quantity: dec(quantity), UnitPrice: dec(price),
		}},
	})
	if err != nil {
		t.Fatalf("CreateSupplierInvoice: %v", err)
	}
	return inv
}

func TestDaysPastDue(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		asOf time.Time
		want int
	}{
		{due, 0},
		{due.Add(23 * time.Hour), 0},
		{due.Add(24 * time.Hour), 1},
		{due.AddDate(0, 0, 45), 45},
		{due.Add(-time.Hour), -1},
	}
	for _, c := range cases {
		if got := daysPastDue(c.asOf, due); got != c.want {
			t.Errorf("daysPastDue(%s) = %d, want %d", c.asOf, got, c.want)
		}
	}
}

func TestAPAgingBucketsAndExport(t *testing.T) {
	f := newReportFixture(t)
	now := time.Now().UTC()

	overdue := f.invoice(t, f.receivedOrder(t, "10", "10.00"), "10", "10.00", now.AddDate(0, 0, -75))
	f.invoice(t, f.receivedOrder(t, "5", "4.00"), "5", "4.00", now)

	report, err := GetAPAgingReport(f.ctx, now)
	if err != nil {
		t.Fatalf("GetAPAgingReport: %v", err)
	}
	if len(report.Buckets) != 4 {
		t.Fatalf("buckets = %d, want 4", len(report.Buckets))
	}
	counts := make(map[string]int)
	for _, b := range report.Buckets {
		counts[b.Range] = b.Count
	}
	if counts["31-60"] != 1 || counts["0-30"] != 0 || counts["61-90"] != 0 || counts["90+"] != 0 {
		t.Fatalf("bucket counts = %v", counts)
	}
	bucket := report.Buckets[1]
	if !bucket.TotalOutstanding.Equal(dec("100")) {
		t.Fatalf("31-60 outstanding = %s", bucket.TotalOutstanding)
	}
	if got := bucket.Invoices[0]; got.SupplierInvoiceId != overdue.ID || got.DaysPastDue < 44 || got.DaysPastDue > 45 {
		t.Fatalf("aged invoice = %+v", got)
	}

	var buf bytes.Buffer
	if err := ExportAPAgingReport(f.ctx, now, &buf); err != nil {
		t.Fatalf("ExportAPAgingReport: %v", err)
	}
	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer book.Close()
	title, err := book.GetCellValue(agingSheetName, "A1")
	if err != nil || !strings.HasPrefix(title, "AP Aging as of") {
		t.Fatalf("title = %q, err = %v", title, err)
	}
	// 0-30 block is empty: title row 3, headings row 4; 31-60 title row 6, headings row 7
	number, err := book.GetCellValue(agingSheetName, "A8")
	if err != nil || number != overdue.InvoiceNumber {
		t.Fatalf("exported invoice number = %q, want %q (err %v)", number, overdue.InvoiceNumber, err)
	}
}

func TestVarianceReport(t *testing.T) {
	f := newReportFixture(t)
	po := f.receivedOrder(t, "10", "10.00")
	f.invoice(t, po, "8", "10.10", time.Now().UTC())
	untouched := f.receivedOrder(t, "3", "2.00")

	report, err := GetVarianceReport(f.ctx, &po.ID)
	if err != nil {
		t.Fatalf("GetVarianceReport: %v", err)
	}
	if len(report.Variances) != 1 {
		t.Fatalf("variance lines = %d, want 1", len(report.Variances))
	}
	line := report.Variances[0]
	if !line.QuantityVariance.Equal(dec("-2")) {
		t.Fatalf("quantity variance = %s", line.QuantityVariance)
	}
	if line.InvoicedUnitPrice == nil || !line.PriceVariance.Equal(dec("0.1")) || !line.PriceVariancePercent.Equal(dec("1")) {
		t.Fatalf("price variance = %+v", line)
	}

	all, err := GetVarianceReport(f.ctx, nil)
	if err != nil {
		t.Fatalf("GetVarianceReport(all): %v", err)
	}
	if len(all.Variances) != 2 {
		t.Fatalf("variance lines = %d, want 2", len(all.Variances))
	}
	last := all.Variances[1]
	if last.PurchaseOrderId != untouched.ID || last.InvoicedUnitPrice != nil || !last.PriceVariance.IsZero() {
		t.Fatalf("uninvoiced line = %+v", last)
	}

	missing := 9999
	if _, err := GetVarianceReport(f.ctx, &missing); !utils.IsNotFound(err) {
		t.Fatalf("unknown purchase order: expected not found, got %v", err)
	}
}

func TestSupplierStatement(t *testing.T) {
	f := newReportFixture(t)
	inv := f.invoice(t, f.receivedOrder(t, "50", "10.00"), "50", "10.00", time.Now().UTC())

	if _, err := models.CreateSupplierPayment(f.ctx, &models.NewSupplierPayment{
		SupplierId:   f.supplier.ID,
		PaymentDate:  time.Now().UTC(),
		Amount:       dec("200"),
		Applications: []models.NewSettlementApplication{{SupplierInvoiceId: inv.ID, Amount: dec("200")}},
	}); err != nil {
		t.Fatalf("CreateSupplierPayment: %v", err)
	}
	if _, err := models.CreateSupplierCredit(f.ctx, &models.NewSupplierCredit{
		SupplierId:   f.supplier.ID,
		CreditDate:   time.Now().UTC(),
		TotalAmount:  dec("100"),
		Applications: []models.NewSettlementApplication{{SupplierInvoiceId: inv.ID, Amount: dec("100")}},
	}); err != nil {
		t.Fatalf("CreateSupplierCredit: %v", err)
	}

	statement, err := GetSupplierStatement(f.ctx, f.supplier.ID)
	if err != nil {
		t.Fatalf("GetSupplierStatement: %v", err)
	}
	if statement.SupplierName != "Northwind" || len(statement.Invoices) != 1 || len(statement.Payments) != 1 || len(statement.Credits) != 1 {
		t.Fatalf("statement = %+v", statement)
	}
	s := statement.Summary
	if !s.TotalInvoiced.Equal(dec("500")) || !s.TotalPaid.Equal(dec("200")) || !s.TotalCredited.Equal(dec("100")) || !s.TotalOutstanding.Equal(dec("200")) {
		t.Fatalf("summary = %+v", s)
	}
	if !statement.Invoices[0].CreditAmount.Equal(dec("100")) {
		t.Fatalf("invoice credit amount = %s", statement.Invoices[0].CreditAmount)
	}

	if _, err := GetSupplierStatement(f.ctx, 9999); !utils.IsNotFound(err) {
		t.Fatalf("unknown supplier: expected not found, got %v", err)
	}
}

func TestReportsRequireBusiness(t *testing.T) {
	newReportFixture(t)
	ctx := context.Background()

	if _, err := GetAPAgingReport(ctx, time.Now().UTC()); !errors.Is(err, models.ErrBusinessIdRequired) {
		t.Fatalf("GetAPAgingReport without business: got %v", err)
	}
	if _, err := GetVarianceReport(ctx, nil); !errors.Is(err, models.ErrBusinessIdRequired) {
		t.Fatalf("GetVarianceReport without business: got %v", err)
	}
}
