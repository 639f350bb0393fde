package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

func TestReconciliationFindsBalanceDrift(t *testing.T) {
	f := newFixture(t)
	inv := f.invoiceFor500(t)
	if _, err := f.pay(inv.ID, "200", "200"); err != nil {
		t.Fatalf("pay: %v", err)
	}

	_, found, err := models.RunReconciliationChecks(f.ctx)
	if err != nil {
		t.Fatalf("RunReconciliationChecks: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("clean data reported %d mismatches: %+v", len(found), found[0])
	}

	// simulate a lost update on the stored balance
	if err := config.GetDB().WithContext(f.ctx).Model(&models.SupplierInvoice{}).
		Where("id = ?", inv.ID).Update("outstanding_amount", dec("500")).Error; err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	cid, found, err := models.RunReconciliationChecks(f.ctx)
	if err != nil {
		t.Fatalf("RunReconciliationChecks: %v", err)
	}
	if len(found) != 1 || found[0].CheckType != models.CheckTypeInvoiceBalance || found[0].EntityId != inv.ID {
		t.Fatalf("unexpected mismatches: %+v", found)
	}
	stored, err := models.ListReconciliationReports(f.ctx, cid)
	if err != nil {
		t.Fatalf("ListReconciliationReports: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored reports = %d, want 1", len(stored))
	}

	if _, err := models.RebuildBalances(f.ctx, nil); err != nil {
		t.Fatalf("RebuildBalances: %v", err)
	}
	assertDecimal(t, "outstanding after rebuild", f.reloadInvoice(t, inv.ID).OutstandingAmount, "300")
	if _, found, err = models.RunReconciliationChecks(f.ctx); err != nil || len(found) != 0 {
		t.Fatalf("after rebuild: mismatches=%d err=%v", len(found), err)
	}

	ids, err := models.ListBusinessIds(f.ctx)
	if err != nil {
		t.Fatalf("ListBusinessIds: %v", err)
	}
	if len(ids) != 1 || ids[0] != testBusinessId {
		t.Fatalf("business ids = %v", ids)
	}
}

func TestAuditTrailRecordsDocumentEvents(t *testing.T) {
	f := newFixture(t)
	po := f.createPurchaseOrder(t, "5", "2.00")

	histories, err := models.ListHistories(f.ctx, string(models.DocumentReferenceTypePurchaseOrder), po.ID)
	if err != nil {
		t.Fatalf("ListHistories: %v", err)
	}
	if len(histories) == 0 {
		t.Fatalf("no history written for purchase order %d", po.ID)
	}

	var events []models.DocumentEventRecord
	if err := config.GetDB().WithContext(f.ctx).
		Where("reference_type = ? AND reference_id = ?", models.DocumentReferenceTypePurchaseOrder, po.ID).
		Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 || events[0].Action != models.DocumentActionCreate {
		t.Fatalf("document events = %+v", events)
	}
	if events[0].PublishStatus != models.OutboxPublishStatusPending {
		t.Fatalf("new event status = %s", events[0].PublishStatus)
	}
}
