package models_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

const testBusinessId = "biz-test"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// setupTestDB opens a fresh sqlite file per test and returns a context scoped to testBusinessId.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "procurement.db"))
	t.Setenv("DOCUMENT_LOCKS", "")
	t.Setenv("STRICT_CREDIT_REMAINDER", "")
	t.Setenv("PRICE_TOLERANCE", "")

	config.ConnectDatabaseWithRetry()
	t.Cleanup(func() { _ = config.CloseDatabase() })
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return utils.SystemContext(context.Background(), testBusinessId)
}

type fixture struct {
	ctx      context.Context
	supplier *models.Supplier
	product  *models.Product
	category *models.UnitCategory
	each     *models.Uom
	dozen    *models.Uom
}

// newFixture creates one supplier and one product counted in Each (base) and Dozen.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := setupTestDB(t)
	f := &fixture{ctx: ctx}

	var err error
	f.category, err = models.CreateUnitCategory(ctx, &models.NewUnitCategory{Name: "Count"})
	if err != nil {
		t.Fatalf("CreateUnitCategory: %v", err)
	}
	f.each, err = models.CreateUom(ctx, &models.NewUom{
		UnitCategoryId: f.category.ID, Name: "Each", ConversionRate: dec("1"), BaseUnit: true,
	})
	if err != nil {
		t.Fatalf("CreateUom(Each): %v", err)
	}
	f.dozen, err = models.CreateUom(ctx, &models.NewUom{
		UnitCategoryId: f.category.ID, Name: "Dozen", ConversionRate: dec("12"),
	})
	if err != nil {
		t.Fatalf("CreateUom(Dozen): %v", err)
	}
	terms := 30
	f.supplier, err = models.CreateSupplier(ctx, &models.NewSupplier{Name: "Acme Trading", PaymentTerms: &terms})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	f.product, err = models.CreateProduct(ctx, &models.NewProduct{
		Name: "Widget", Sku: "WID-1", UnitCategoryId: f.category.ID, PurchasePrice: dec("10"),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return f
}

func (f *fixture) createPurchaseOrder(t *testing.T, quantity string, unitPrice string) *models.PurchaseOrder {
	t.Helper()
	confirmed := models.PurchaseOrderStatusConfirmed
	po, err := models.CreatePurchaseOrder(f.ctx, &models.NewPurchaseOrder{
		SupplierId: f.supplier.ID,
		OrderDate:  time.Now().UTC(),
		Status:     &confirmed,
		Details: []models.NewPurchaseOrderDetail{{
			ProductId: f.product.ID,
			UomId:     f.each.ID,
			BaseUomId: f.each.ID,
			Quantity:  dec(quantity),
			UnitPrice: dec(unitPrice),
		}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	return po
}

func (f *fixture) receive(po *models.PurchaseOrder, quantity string) (*models.GoodsReceipt, error) {
	line := po.Details[0]
	return models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		PurchaseOrderId: po.ID,
		ReceivedDate:    time.Now().UTC(),
		Details: []models.NewGoodsReceiptDetail{{
			PurchaseOrderDetailId: line.ID,
			ProductId:             line.ProductId,
			UomId:                 f.each.ID,
			BaseUomId:             f.each.ID,
			QuantityReceived:      dec(quantity),
		}},
	})
}

func (f *fixture) invoice(po *models.PurchaseOrder, quantity string, unitPrice string) (*models.SupplierInvoice, error) {
	line := po.Details[0]
	posted := models.SupplierInvoiceStatusPosted
	invoiceDate := time.Now().UTC()
	return models.CreateSupplierInvoice(f.ctx, &models.NewSupplierInvoice{
		SupplierId:      f.supplier.ID,
		PurchaseOrderId: &po.ID,
		InvoiceDate:     &invoiceDate,
		Status:          &posted,
		Details: []models.NewSupplierInvoiceDetail{{
			PurchaseOrderDetailId: line.ID,
			ProductId:             line.ProductId,
			UomId:                 f.each.ID,
			BaseUomId:             f.each.ID,
			Quantity:              dec(quantity),
			UnitPrice:             dec(unitPrice),
		}},
	})
}

// invoiceFor500 returns a posted invoice of 50 × 10.00 backed by a fully received order.
func (f *fixture) invoiceFor500(t *testing.T) *models.SupplierInvoice {
	t.Helper()
	po := f.createPurchaseOrder(t, "50", "10.00")
	if _, err := f.receive(po, "50"); err != nil {
		t.Fatalf("receive: %v", err)
	}
	inv, err := f.invoice(po, "50", "10.00")
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if !inv.TotalAmount.Equal(dec("500")) {
		t.Fatalf("invoice total = %s, want 500", inv.TotalAmount)
	}
	return inv
}

func (f *fixture) pay(invoiceId int, amount string, applied string) (*models.SupplierPayment, error) {
	input := &models.NewSupplierPayment{
		SupplierId:  f.supplier.ID,
		PaymentDate: time.Now().UTC(),
		Amount:      dec(amount),
	}
	if applied != "" {
		input.Applications = []models.NewSettlementApplication{{SupplierInvoiceId: invoiceId, Amount: dec(applied)}}
	}
	return models.CreateSupplierPayment(f.ctx, input)
}

func (f *fixture) credit(invoiceId int, total string, applied string) (*models.SupplierCredit, error) {
	input := &models.NewSupplierCredit{
		SupplierId:  f.supplier.ID,
		CreditDate:  time.Now().UTC(),
		TotalAmount: dec(total),
	}
	if applied != "" {
		input.Applications = []models.NewSettlementApplication{{SupplierInvoiceId: invoiceId, Amount: dec(applied)}}
	}
	return models.CreateSupplierCredit(f.ctx, input)
}

func (f *fixture) reloadProduct(t *testing.T) *models.Product {
	t.Helper()
	p, err := models.GetProduct(f.ctx, f.product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	return p
}

func (f *fixture) reloadInvoice(t *testing.T, id int) *models.SupplierInvoice {
	t.Helper()
	inv, err := models.GetSupplierInvoice(f.ctx, id)
	if err != nil {
		t.Fatalf("GetSupplierInvoice: %v", err)
	}
	return inv
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", name, got.String(), want)
	}
}
