package models_test

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

func TestThreeWayMatch(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "100", "10.00")
	if _, err := f.receive(po, "60"); err != nil {
		t.Fatalf("receive 60: %v", err)
	}

	if _, err := f.invoice(po, "60", "10.30"); !utils.IsValidation(err) {
		t.Fatalf("invoice at 10.30: expected validation error, got %v", err)
	} else if msg := utils.ValidationFields(err)["details[0].unitPrice"]; !strings.Contains(msg, "3.00%") {
		t.Fatalf("price variance message = %q", msg)
	}

	first, err := f.invoice(po, "60", "10.19")
	if err != nil {
		t.Fatalf("invoice 60 at 10.19: %v", err)
	}
	assertDecimal(t, "first total", first.TotalAmount, "611.4")
	assertDecimal(t, "first outstanding", first.OutstandingAmount, "611.4")
	if first.DueDate == nil || first.PaymentTerms == nil || *first.PaymentTerms != 30 {
		t.Fatalf("supplier payment terms not applied: terms=%v due=%v", first.PaymentTerms, first.DueDate)
	}

	// nothing left received-but-uninvoiced
	if _, err := f.invoice(po, "40", "10.00"); !utils.IsValidation(err) {
		t.Fatalf("invoice beyond received: expected validation error, got %v", err)
	}

	if _, err := f.receive(po, "40"); err != nil {
		t.Fatalf("receive 40: %v", err)
	}
	if _, err := f.invoice(po, "40", "10.00"); err != nil {
		t.Fatalf("invoice 40: %v", err)
	}
	_, err = f.invoice(po, "1", "10.00")
	if !utils.IsValidation(err) {
		t.Fatalf("invoice 1 more: expected validation error, got %v", err)
	}
	if msg := utils.ValidationFields(err)["details[0].quantity"]; !strings.Contains(msg, "101") {
		t.Fatalf("over-invoice message = %q", msg)
	}

	summary, err := models.GetPurchaseOrderReceiptSummary(f.ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrderReceiptSummary: %v", err)
	}
	assertDecimal(t, "invoiced", summary.Lines[0].InvoicedBaseQuantity, "100")
	assertDecimal(t, "remaining to invoice", summary.Lines[0].RemainingToInvoice, "0")
}

func TestInvoicePriceToleranceFromEnv(t *testing.T) {
	f := newFixture(t)
	t.Setenv("PRICE_TOLERANCE", "0.05")
	po := f.createPurchaseOrder(t, "10", "10.00")
	if _, err := f.receive(po, "10"); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := f.invoice(po, "10", "10.40"); err != nil {
		t.Fatalf("4%% variance under 5%% tolerance: %v", err)
	}
}

func TestInvoiceRejectsDuplicateLinesAndForeignSupplier(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "10", "5.00")
	if _, err := f.receive(po, "10"); err != nil {
		t.Fatalf("receive: %v", err)
	}
	line := po.Details[0]
	detail := models.NewSupplierInvoiceDetail{
		PurchaseOrderDetailId: line.ID,
		ProductId:             line.ProductId,
		UomId:                 f.each.ID,
		BaseUomId:             f.each.ID,
		Quantity:              dec("2"),
		UnitPrice:             dec("5.00"),
	}

	_, err := models.CreateSupplierInvoice(f.ctx, &models.NewSupplierInvoice{
		SupplierId: f.supplier.ID,
		Details:    []models.NewSupplierInvoiceDetail{detail, detail},
	})
	if !utils.IsValidation(err) {
		t.Fatalf("duplicate line: expected validation error, got %v", err)
	}
	if _, ok := utils.ValidationFields(err)["details[1].purchaseOrderDetailId"]; !ok {
		t.Fatalf("missing duplicate line error: %v", utils.ValidationFields(err))
	}

	other, err := models.CreateSupplier(f.ctx, &models.NewSupplier{Name: "Other Supplier"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	_, err = models.CreateSupplierInvoice(f.ctx, &models.NewSupplierInvoice{
		SupplierId: other.ID,
		Details:    []models.NewSupplierInvoiceDetail{detail},
	})
	if !utils.IsValidation(err) {
		t.Fatalf("foreign supplier: expected validation error, got %v", err)
	}
}

func TestInvoiceWithoutLinesIsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := models.CreateSupplierInvoice(f.ctx, &models.NewSupplierInvoice{SupplierId: f.supplier.ID})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateInvoiceCannotDropBelowSettled(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)
	if _, err := f.pay(inv.ID, "300", "300"); err != nil {
		t.Fatalf("pay: %v", err)
	}
	line := inv.Details[0]
	invoiceDate := time.Now().UTC()
	_, err := models.UpdateSupplierInvoice(f.ctx, inv.ID, &models.NewSupplierInvoice{
		SupplierId:      f.supplier.ID,
		PurchaseOrderId: inv.PurchaseOrderId,
		InvoiceDate:     &invoiceDate,
		Details: []models.NewSupplierInvoiceDetail{{
			PurchaseOrderDetailId: line.PurchaseOrderDetailId,
			ProductId:             line.ProductId,
			UomId:                 line.UomId,
			BaseUomId:             line.BaseUomId,
			Quantity:              dec("20"),
			UnitPrice:             dec("10.00"),
		}},
	})
	if !utils.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := models.DeleteSupplierInvoice(f.ctx, inv.ID); !utils.IsConflict(err) {
		t.Fatalf("deleting an invoice with payments: expected conflict, got %v", err)
	}
}

func TestRecomputeInvoiceBalanceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)
	if _, err := f.pay(inv.ID, "200", "200"); err != nil {
		t.Fatalf("pay: %v", err)
	}

	first, err := models.RebuildBalances(f.ctx, &inv.ID)
	if err != nil {
		t.Fatalf("RebuildBalances: %v", err)
	}
	once := f.reloadInvoice(t, inv.ID)
	if _, err := models.RebuildBalances(f.ctx, nil); err != nil {
		t.Fatalf("RebuildBalances all: %v", err)
	}
	twice := f.reloadInvoice(t, inv.ID)

	if first != 1 {
		t.Fatalf("documents rebuilt = %d, want 1", first)
	}
	assertDecimal(t, "paid", once.PaidAmount, "200")
	assertDecimal(t, "outstanding", once.OutstandingAmount, "300")
	if once.Status != models.SupplierInvoiceStatusPartiallyPaid || twice.Status != once.Status {
		t.Fatalf("status after rebuild = %s then %s", once.Status, twice.Status)
	}
	if !once.OutstandingAmount.Equal(twice.OutstandingAmount) || !once.TotalAmount.Equal(twice.TotalAmount) {
		t.Fatalf("second rebuild changed the invoice: %+v vs %+v", once, twice)
	}
}
