package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

// reassign points po at supplierId, keeping its single line as is.
func (f *fixture) reassign(po *models.PurchaseOrder, supplierId int) (*models.PurchaseOrder, error) {
	line := po.Details[0]
	confirmed := models.PurchaseOrderStatusConfirmed
	return models.UpdatePurchaseOrder(f.ctx, po.ID, &models.NewPurchaseOrder{
		SupplierId: supplierId,
		OrderDate:  po.OrderDate,
		Status:     &confirmed,
		Details: []models.NewPurchaseOrderDetail{{
			DetailId:  line.ID,
			ProductId: line.ProductId,
			UomId:     line.UomId,
			BaseUomId: line.BaseUomId,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}},
	})
}

func TestPurchaseOrderSupplierLockedOnceReferenced(t *testing.T) {
	f := newFixture(t)
	other, err := models.CreateSupplier(f.ctx, &models.NewSupplier{Name: "Globex"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	fresh := f.createPurchaseOrder(t, "5", "2.00")
	moved, err := f.reassign(fresh, other.ID)
	if err != nil {
		t.Fatalf("reassigning unreferenced order: %v", err)
	}
	if moved.SupplierId != other.ID {
		t.Fatalf("supplier = %d, want %d", moved.SupplierId, other.ID)
	}

	po := f.createPurchaseOrder(t, "10", "1.00")
	if _, err := f.receive(po, "10"); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := f.invoice(po, "10", "1.00"); err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if _, err := f.reassign(po, other.ID); !utils.IsConflict(err) {
		t.Fatalf("reassigning invoiced order: expected conflict, got %v", err)
	}
	order, err := models.GetPurchaseOrder(f.ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if order.SupplierId != f.supplier.ID {
		t.Fatalf("supplier changed to %d", order.SupplierId)
	}

	// same supplier still edits fine
	if _, err := f.reassign(po, f.supplier.ID); err != nil {
		t.Fatalf("update keeping supplier: %v", err)
	}
}
