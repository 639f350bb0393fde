package models_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

func TestReceiptCannotExceedOrderedQuantity(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "100", "10.00")

	grn, err := f.receive(po, "60")
	if err != nil {
		t.Fatalf("receive 60: %v", err)
	}
	if grn.Status != models.GoodsReceiptStatusPartial {
		t.Fatalf("receipt status = %s, want PARTIAL", grn.Status)
	}
	if !strings.HasPrefix(grn.ReceiptNumber, "GRN-") {
		t.Fatalf("receipt number = %q", grn.ReceiptNumber)
	}

	_, err = f.receive(po, "50")
	if !utils.IsValidation(err) {
		t.Fatalf("receive 50 more: expected validation error, got %v", err)
	}
	msg := utils.ValidationFields(err)["details[0].quantityReceived"]
	if !strings.Contains(msg, "110") || !strings.Contains(msg, "100") {
		t.Fatalf("over-receipt message does not quantify the excess: %q", msg)
	}

	assertDecimal(t, "inventory", f.reloadProduct(t).Quantity, "60")

	summary, err := models.GetPurchaseOrderReceiptSummary(f.ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrderReceiptSummary: %v", err)
	}
	assertDecimal(t, "received", summary.Lines[0].ReceivedBaseQuantity, "60")
	assertDecimal(t, "remaining", summary.Lines[0].RemainingToReceive, "40")
	if summary.Status != models.PurchaseOrderStatusPartial {
		t.Fatalf("purchase order status = %s, want %s", summary.Status, models.PurchaseOrderStatusPartial)
	}
}

func TestReceiptConvertsToBaseUnits(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "24", "1.00")
	line := po.Details[0]

	grn, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		PurchaseOrderId: po.ID,
		ReceivedDate:    time.Now().UTC(),
		Details: []models.NewGoodsReceiptDetail{{
			PurchaseOrderDetailId: line.ID,
			ProductId:             line.ProductId,
			UomId:                 f.dozen.ID,
			BaseUomId:             f.each.ID,
			QuantityReceived:      dec("2"),
		}},
	})
	if err != nil {
		t.Fatalf("CreateGoodsReceipt: %v", err)
	}
	assertDecimal(t, "base quantity", grn.Details[0].BaseQuantityReceived, "24")
	if grn.Status != models.GoodsReceiptStatusComplete {
		t.Fatalf("receipt status = %s, want COMPLETE", grn.Status)
	}
	order, err := models.GetPurchaseOrder(f.ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if order.Status != models.PurchaseOrderStatusClosed {
		t.Fatalf("purchase order status = %s, want Closed", order.Status)
	}
}

func TestReceiptRejectsWrongBaseUom(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "10", "1.00")
	line := po.Details[0]

	_, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		PurchaseOrderId: po.ID,
		ReceivedDate:    time.Now().UTC(),
		Details: []models.NewGoodsReceiptDetail{{
			PurchaseOrderDetailId: line.ID,
			ProductId:             line.ProductId,
			UomId:                 f.each.ID,
			BaseUomId:             f.dozen.ID,
			QuantityReceived:      dec("1"),
		}},
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := utils.ValidationFields(err)["details[0].baseUomId"]; !ok {
		t.Fatalf("missing baseUomId field error: %v", utils.ValidationFields(err))
	}
}

func TestReceiptAgainstUnknownPurchaseOrderIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		PurchaseOrderId: 999,
		ReceivedDate:    time.Now().UTC(),
		Details: []models.NewGoodsReceiptDetail{{
			PurchaseOrderDetailId: 1, ProductId: f.product.ID, UomId: f.each.ID, BaseUomId: f.each.ID, QuantityReceived: dec("1"),
		}},
	})
	if !utils.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteGoodsReceiptRules(t *testing.T) {
	f := newFixture(t)

	full := f.createPurchaseOrder(t, "10", "1.00")
	complete, err := f.receive(full, "10")
	if err != nil {
		t.Fatalf("receive full: %v", err)
	}
	if _, err := models.DeleteGoodsReceipt(f.ctx, complete.ID); !utils.IsConflict(err) {
		t.Fatalf("deleting COMPLETE receipt: expected conflict, got %v", err)
	}

	partialPo := f.createPurchaseOrder(t, "10", "1.00")
	partial, err := f.receive(partialPo, "4")
	if err != nil {
		t.Fatalf("receive partial: %v", err)
	}
	assertDecimal(t, "inventory before delete", f.reloadProduct(t).Quantity, "14")

	if _, err := models.DeleteGoodsReceipt(f.ctx, partial.ID); err != nil {
		t.Fatalf("deleting PARTIAL receipt: %v", err)
	}
	assertDecimal(t, "inventory after delete", f.reloadProduct(t).Quantity, "10")

	order, err := models.GetPurchaseOrder(f.ctx, partialPo.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if order.Status != models.PurchaseOrderStatusConfirmed {
		t.Fatalf("purchase order status after delete = %s, want Confirmed", order.Status)
	}
}

func TestUpdateGoodsReceiptExcludesItsOwnLines(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "10", "1.00")
	grn, err := f.receive(po, "6")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	line := po.Details[0]

	updated, err := models.UpdateGoodsReceipt(f.ctx, grn.ID, &models.NewGoodsReceipt{
		PurchaseOrderId: po.ID,
		ReceivedDate:    grn.ReceivedDate,
		Details: []models.NewGoodsReceiptDetail{{
			PurchaseOrderDetailId: line.ID,
			ProductId:             line.ProductId,
			UomId:                 f.each.ID,
			BaseUomId:             f.each.ID,
			QuantityReceived:      dec("10"),
		}},
	})
	if err != nil {
		t.Fatalf("UpdateGoodsReceipt: %v", err)
	}
	if updated.Status != models.GoodsReceiptStatusComplete {
		t.Fatalf("status = %s, want COMPLETE", updated.Status)
	}
	assertDecimal(t, "inventory", f.reloadProduct(t).Quantity, "10")
}

func TestReceiptCannotDropBelowInvoiced(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "100", "1.00")
	grn, err := f.receive(po, "60")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := f.invoice(po, "60", "1.00"); err != nil {
		t.Fatalf("invoice: %v", err)
	}
	line := po.Details[0]
	update := func(quantity string) error {
		_, err := models.UpdateGoodsReceipt(f.ctx, grn.ID, &models.NewGoodsReceipt{
			PurchaseOrderId: po.ID,
			ReceivedDate:    grn.ReceivedDate,
			Details: []models.NewGoodsReceiptDetail{{
				PurchaseOrderDetailId: line.ID,
				ProductId:             line.ProductId,
				UomId:                 f.each.ID,
				BaseUomId:             f.each.ID,
				QuantityReceived:      dec(quantity),
			}},
		})
		return err
	}

	if _, err := models.DeleteGoodsReceipt(f.ctx, grn.ID); !utils.IsConflict(err) {
		t.Fatalf("deleting invoiced receipt: expected conflict, got %v", err)
	}
	if err := update("10"); !utils.IsConflict(err) {
		t.Fatalf("reducing invoiced receipt: expected conflict, got %v", err)
	}
	assertDecimal(t, "inventory after rejected changes", f.reloadProduct(t).Quantity, "60")

	if err := update("60"); err != nil {
		t.Fatalf("update keeping invoiced quantity: %v", err)
	}
	if err := update("75"); err != nil {
		t.Fatalf("update raising quantity: %v", err)
	}
	assertDecimal(t, "inventory after raise", f.reloadProduct(t).Quantity, "75")
}

func TestDeleteReceiptFloorsStockAtZero(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "10", "1.00")
	grn, err := f.receive(po, "4")
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	// stock consumed elsewhere since the receipt
	if err := config.GetDB().WithContext(f.ctx).Model(&models.Product{}).
		Where("id = ?", f.product.ID).Update("quantity", dec("3")).Error; err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	if _, err := models.DeleteGoodsReceipt(f.ctx, grn.ID); err != nil {
		t.Fatalf("DeleteGoodsReceipt: %v", err)
	}
	assertDecimal(t, "inventory after delete", f.reloadProduct(t).Quantity, "0")
}

func TestConcurrentReceiptsCannotOverReceive(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "100", "1.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.receive(po, "60")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !utils.IsValidation(err):
			t.Fatalf("losing receipt: expected validation error, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("receipts accepted = %d, want 1 (errors %v)", succeeded, errs)
	}
	assertDecimal(t, "inventory", f.reloadProduct(t).Quantity, "60")
}

func TestDocumentSeriesNumbers(t *testing.T) {
	f := newFixture(t)
	first := f.createPurchaseOrder(t, "1", "1")
	second := f.createPurchaseOrder(t, "1", "1")
	if first.OrderNumber != "PO-0001" || second.OrderNumber != "PO-0002" {
		t.Fatalf("order numbers = %s, %s", first.OrderNumber, second.OrderNumber)
	}

	// a client-supplied code ahead of the counter is skipped over later
	_, err := models.CreatePurchaseOrder(f.ctx, &models.NewPurchaseOrder{
		SupplierId:  f.supplier.ID,
		OrderNumber: "PO-0003",
		OrderDate:   time.Now().UTC(),
		Details: []models.NewPurchaseOrderDetail{{
			ProductId: f.product.ID, UomId: f.each.ID, BaseUomId: f.each.ID, Quantity: dec("1"), UnitPrice: dec("1"),
		}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder with number: %v", err)
	}
	fourth := f.createPurchaseOrder(t, "1", "1")
	if fourth.OrderNumber != "PO-0004" {
		t.Fatalf("next number = %s, want PO-0004", fourth.OrderNumber)
	}

	_, err = models.CreatePurchaseOrder(f.ctx, &models.NewPurchaseOrder{
		SupplierId:  f.supplier.ID,
		OrderNumber: "PO-0001",
		OrderDate:   time.Now().UTC(),
		Details: []models.NewPurchaseOrderDetail{{
			ProductId: f.product.ID, UomId: f.each.ID, BaseUomId: f.each.ID, Quantity: dec("1"), UnitPrice: dec("1"),
		}},
	})
	if !utils.IsValidation(err) {
		t.Fatalf("duplicate order number: expected validation error, got %v", err)
	}

	if n, ok := models.ParseSeriesCode("GRN", "GRN-0042"); !ok || n != 42 {
		t.Fatalf("ParseSeriesCode = %d, %v", n, ok)
	}
	if _, ok := models.ParseSeriesCode("GRN", "PO-0042"); ok {
		t.Fatalf("ParseSeriesCode accepted a foreign prefix")
	}
}
