package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type lineTotal struct {
	PurchaseOrderDetailId int
	Total                 decimal.Decimal
}

// lockPurchaseOrderDetails takes row locks on every line of a purchase order, in id order, so
// receipts and invoices against the same order serialize their cumulative checks.
func lockPurchaseOrderDetails(tx *gorm.DB, purchaseOrderId int) ([]*PurchaseOrderDetail, error) {
	var details []*PurchaseOrderDetail
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("purchase_order_id = ?", purchaseOrderId).
		Order("id").
		Find(&details).Error
	return details, err
}

// lockPurchaseOrderDetailsByIds locks the given lines, in id order.
func lockPurchaseOrderDetailsByIds(tx *gorm.DB, ids []int) (map[int]*PurchaseOrderDetail, error) {
	result := make(map[int]*PurchaseOrderDetail)
	if len(ids) == 0 {
		return result, nil
	}
	var details []*PurchaseOrderDetail
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&details).Error; err != nil {
		return nil, err
	}
	for _, d := range details {
		result[d.ID] = d
	}
	return result, nil
}

// receivedBaseQuantities sums base_quantity_received per purchase line across all receipts,
// leaving out the lines of excludeReceiptId (0 excludes nothing).
func receivedBaseQuantities(tx *gorm.DB, detailIds []int, excludeReceiptId int) (map[int]decimal.Decimal, error) {
	dbCtx := tx.Model(&GoodsReceiptDetail{}).
		Select("purchase_order_detail_id, COALESCE(SUM(base_quantity_received), 0) AS total").
		Where("purchase_order_detail_id IN ?", detailIds)
	if excludeReceiptId > 0 {
		dbCtx = dbCtx.Where("goods_receipt_id <> ?", excludeReceiptId)
	}
	return scanLineTotals(dbCtx, detailIds)
}

// invoicedBaseQuantities sums base_quantity per purchase line across all invoices,
// leaving out the lines of excludeInvoiceId (0 excludes nothing).
func invoicedBaseQuantities(tx *gorm.DB, detailIds []int, excludeInvoiceId int) (map[int]decimal.Decimal, error) {
	dbCtx := tx.Model(&SupplierInvoiceDetail{}).
		Select("purchase_order_detail_id, COALESCE(SUM(base_quantity), 0) AS total").
		Where("purchase_order_detail_id IN ?", detailIds)
	if excludeInvoiceId > 0 {
		dbCtx = dbCtx.Where("supplier_invoice_id <> ?", excludeInvoiceId)
	}
	return scanLineTotals(dbCtx, detailIds)
}

func scanLineTotals(dbCtx *gorm.DB, detailIds []int) (map[int]decimal.Decimal, error) {
	result := make(map[int]decimal.Decimal, len(detailIds))
	for _, id := range detailIds {
		result[id] = decimal.Zero
	}
	if len(detailIds) == 0 {
		return result, nil
	}
	var rows []lineTotal
	if err := dbCtx.Group("purchase_order_detail_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.PurchaseOrderDetailId] = r.Total.Round(UnitPrecision)
	}
	return result, nil
}

// purchaseLineReferenceCounts counts receipt and invoice lines pointing at each purchase line.
func purchaseLineReferenceCounts(tx *gorm.DB, detailIds []int) (map[int]int64, error) {
	result := make(map[int]int64, len(detailIds))
	if len(detailIds) == 0 {
		return result, nil
	}
	type refCount struct {
		PurchaseOrderDetailId int
		Cnt                   int64
	}
	for _, model := range []interface{}{&GoodsReceiptDetail{}, &SupplierInvoiceDetail{}} {
		var rows []refCount
		if err := tx.Model(model).
			Select("purchase_order_detail_id, COUNT(*) AS cnt").
			Where("purchase_order_detail_id IN ?", detailIds).
			Group("purchase_order_detail_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			result[r.PurchaseOrderDetailId] += r.Cnt
		}
	}
	return result, nil
}

// deriveReceiptStatus: COMPLETE when every line is fully received, PARTIAL when any line has
// received something, PENDING otherwise.
func deriveReceiptStatus(lines []*PurchaseOrderDetail, received map[int]decimal.Decimal) GoodsReceiptStatus {
	if len(lines) == 0 {
		return GoodsReceiptStatusPending
	}
	complete := true
	started := false
	for _, line := range lines {
		got := received[line.ID]
		if got.IsPositive() {
			started = true
		}
		if got.LessThan(line.BaseQuantity) {
			complete = false
		}
	}
	switch {
	case complete:
		return GoodsReceiptStatusComplete
	case started:
		return GoodsReceiptStatusPartial
	default:
		return GoodsReceiptStatusPending
	}
}

func lineItemStatus(ordered decimal.Decimal, received decimal.Decimal) PurchaseOrderItemStatus {
	switch {
	case received.GreaterThanOrEqual(ordered):
		return PurchaseOrderItemStatusReceived
	case received.IsPositive():
		return PurchaseOrderItemStatusPartial
	default:
		return PurchaseOrderItemStatusNew
	}
}

// checkReceivedCoversInvoiced rejects a receipt change that would leave any line with less
// received than already invoiced. received must already hold the post-change totals.
func checkReceivedCoversInvoiced(tx *gorm.DB, lineIds []int, received map[int]decimal.Decimal) error {
	invoiced, err := invoicedBaseQuantities(tx, lineIds, 0)
	if err != nil {
		return err
	}
	for _, id := range lineIds {
		if received[id].LessThan(invoiced[id]) {
			return utils.NewConflictError("Purchase order line %d would have %s received but %s already invoiced",
				id, received[id].String(), invoiced[id].String())
		}
	}
	return nil
}
