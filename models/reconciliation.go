package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

const (
	CheckTypeOverReceived      = "OVER_RECEIVED"
	CheckTypeOverInvoiced      = "OVER_INVOICED"
	CheckTypeInvoiceBalance    = "INVOICE_BALANCE"
	CheckTypeOverAppliedCredit = "OVER_APPLIED_CREDIT"
	CheckTypeOverAppliedPay    = "OVER_APPLIED_PAYMENT"
)

type ReconciliationReport struct {
	ID            int       `gorm:"primary_key" json:"id"`
	BusinessId    string    `gorm:"size:64;index;not null" json:"business_id"`
	CheckType     string    `gorm:"size:50;index;not null" json:"check_type"`
	EntityType    string    `gorm:"size:50;index;not null" json:"entity_type"` // PurchaseOrderDetail, SupplierInvoice, ...
	EntityId      int       `gorm:"index;not null" json:"entity_id"`
	Details       string    `gorm:"type:text" json:"details"`
	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// RunReconciliationChecks re-derives the quantity and balance invariants of the business in ctx
// from stored rows and writes one reconciliation_reports row per mismatch.
func RunReconciliationChecks(ctx context.Context) (string, []*ReconciliationReport, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return "", nil, err
	}
	cid, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || cid == "" {
		cid = uuid.NewString()
	}
	db := config.GetDB().WithContext(ctx)
	now := time.Now().UTC()

	var found []*ReconciliationReport
	report := func(checkType string, entityType string, entityId int, format string, args ...interface{}) {
		found = append(found, &ReconciliationReport{
			BusinessId:    businessId,
			CheckType:     checkType,
			EntityType:    entityType,
			EntityId:      entityId,
			Details:       fmt.Sprintf(format, args...),
			CorrelationId: cid,
			CreatedAt:     now,
		})
	}

	// 1) purchase lines: received <= ordered, invoiced <= min(ordered, received)
	var lines []*PurchaseOrderDetail
	orderIds := db.Model(&PurchaseOrder{}).Select("id").Where("business_id = ?", businessId)
	if err := db.Where("purchase_order_id IN (?)", orderIds).Order("id").Find(&lines).Error; err != nil {
		return cid, nil, err
	}
	lineIds := idsOfDetails(lines)
	received, err := receivedBaseQuantities(db, lineIds, 0)
	if err != nil {
		return cid, nil, err
	}
	invoiced, err := invoicedBaseQuantities(db, lineIds, 0)
	if err != nil {
		return cid, nil, err
	}
	for _, line := range lines {
		if received[line.ID].GreaterThan(line.BaseQuantity) {
			report(CheckTypeOverReceived, "PurchaseOrderDetail", line.ID,
				"received=%s > ordered=%s", received[line.ID], line.BaseQuantity)
		}
		if limit := minDecimal(line.BaseQuantity, received[line.ID]); invoiced[line.ID].GreaterThan(limit) {
			report(CheckTypeOverInvoiced, "PurchaseOrderDetail", line.ID,
				"invoiced=%s > min(ordered, received)=%s", invoiced[line.ID], limit)
		}
	}

	// 2) invoice header balances vs lines and applications
	var invoices []*SupplierInvoice
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&invoices).Error; err != nil {
		return cid, nil, err
	}
	for _, inv := range invoices {
		total, err := sumColumn(db, &SupplierInvoiceDetail{}, "amount", "supplier_invoice_id = ?", inv.ID)
		if err != nil {
			return cid, nil, err
		}
		paid, err := sumColumn(db, &SupplierPaymentApplication{}, "amount", "supplier_invoice_id = ?", inv.ID)
		if err != nil {
			return cid, nil, err
		}
		credited, err := sumColumn(db, &SupplierCreditApplication{}, "amount", "supplier_invoice_id = ?", inv.ID)
		if err != nil {
			return cid, nil, err
		}
		outstanding := maxDecimal(decimal.Zero, total.Sub(paid).Sub(credited))
		if !sameAmount(inv.TotalAmount, total) || !sameAmount(inv.PaidAmount, paid) ||
			!sameAmount(inv.CreditedAmount, credited) || !sameAmount(inv.OutstandingAmount, outstanding) {
			report(CheckTypeInvoiceBalance, "SupplierInvoice", inv.ID,
				"stored total=%s paid=%s credited=%s outstanding=%s; derived total=%s paid=%s credited=%s outstanding=%s",
				inv.TotalAmount, inv.PaidAmount, inv.CreditedAmount, inv.OutstandingAmount,
				total, paid, credited, outstanding)
		}
	}

	// 3) settlements never apply more than their own amount
	var payments []*SupplierPayment
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&payments).Error; err != nil {
		return cid, nil, err
	}
	for _, p := range payments {
		applied, err := sumColumn(db, &SupplierPaymentApplication{}, "amount", "supplier_payment_id = ?", p.ID)
		if err != nil {
			return cid, nil, err
		}
		if applied.GreaterThan(p.Amount) {
			report(CheckTypeOverAppliedPay, "SupplierPayment", p.ID, "applied=%s > amount=%s", applied, p.Amount)
		}
	}
	var credits []*SupplierCredit
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&credits).Error; err != nil {
		return cid, nil, err
	}
	for _, c := range credits {
		applied, err := sumColumn(db, &SupplierCreditApplication{}, "amount", "supplier_credit_id = ?", c.ID)
		if err != nil {
			return cid, nil, err
		}
		if applied.GreaterThan(c.TotalAmount) {
			report(CheckTypeOverAppliedCredit, "SupplierCredit", c.ID, "applied=%s > total=%s", applied, c.TotalAmount)
		}
	}

	if len(found) > 0 {
		if err := db.Create(&found).Error; err != nil {
			return cid, nil, err
		}
	}

	config.GetLogger().WithFields(logrus.Fields{
		"field":           "ReconciliationChecks",
		"business_id":     businessId,
		"correlation_id":  cid,
		"lines_checked":   len(lines),
		"invoice_checked": len(invoices),
		"mismatches":      len(found),
	}).Info("reconciliation checks completed")
	return cid, found, nil
}

// ListReconciliationReports returns the rows written by one run, or the latest rows when
// correlationId is empty.
func ListReconciliationReports(ctx context.Context, correlationId string) ([]*ReconciliationReport, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if correlationId != "" {
		dbCtx = dbCtx.Where("correlation_id = ?", correlationId)
	}
	var results []*ReconciliationReport
	err = dbCtx.Order("id DESC").Limit(500).Find(&results).Error
	return results, err
}

func sameAmount(a, b decimal.Decimal) bool {
	return a.Round(MoneyPrecision).Equal(b.Round(MoneyPrecision))
}

// ListBusinessIds returns every business that owns at least one supplier.
func ListBusinessIds(ctx context.Context) ([]string, error) {
	var ids []string
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	err := config.GetDB().WithContext(ctx).Model(&Supplier{}).Distinct().Order("business_id").Pluck("business_id", &ids).Error
	return ids, err
}
