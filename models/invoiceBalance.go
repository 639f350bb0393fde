package models

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
)

func sumColumn(tx *gorm.DB, model interface{}, column string, query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(model).
		Select("COALESCE(SUM("+column+"), 0)").
		Where(query, args...).
		Row().Scan(&total)
	return total.Round(UnitPrecision), err
}

// deriveInvoiceStatus: PAID once payments cover the total, PARTIALLY_PAID while some payment
// exists, otherwise DRAFT and CLOSED are kept and anything else falls back to POSTED.
func deriveInvoiceStatus(current SupplierInvoiceStatus, total decimal.Decimal, paid decimal.Decimal) SupplierInvoiceStatus {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return SupplierInvoiceStatusPaid
	case paid.IsPositive():
		return SupplierInvoiceStatusPartiallyPaid
	case current == SupplierInvoiceStatusDraft, current == SupplierInvoiceStatusClosed:
		return current
	default:
		return SupplierInvoiceStatusPosted
	}
}

// RecomputeInvoiceBalance re-derives an invoice's total, paid, credited and outstanding amounts
// and its status from the stored lines and applications. Running it twice gives the same row.
func RecomputeInvoiceBalance(tx *gorm.DB, invoiceId int) (*SupplierInvoice, error) {
	var invoice SupplierInvoice
	if err := tx.Where("id = ?", invoiceId).Take(&invoice).Error; err != nil {
		return nil, err
	}
	total, err := sumColumn(tx, &SupplierInvoiceDetail{}, "amount", "supplier_invoice_id = ?", invoiceId)
	if err != nil {
		return nil, err
	}
	paid, err := sumColumn(tx, &SupplierPaymentApplication{}, "amount", "supplier_invoice_id = ?", invoiceId)
	if err != nil {
		return nil, err
	}
	credited, err := sumColumn(tx, &SupplierCreditApplication{}, "amount", "supplier_invoice_id = ?", invoiceId)
	if err != nil {
		return nil, err
	}

	invoice.TotalAmount = total
	invoice.PaidAmount = paid
	invoice.CreditedAmount = credited
	invoice.OutstandingAmount = maxDecimal(decimal.Zero, total.Sub(paid).Sub(credited))
	invoice.Status = deriveInvoiceStatus(invoice.Status, total, paid)

	err = tx.Model(&SupplierInvoice{}).Where("id = ?", invoiceId).Updates(map[string]interface{}{
		"total_amount":       invoice.TotalAmount,
		"paid_amount":        invoice.PaidAmount,
		"credited_amount":    invoice.CreditedAmount,
		"outstanding_amount": invoice.OutstandingAmount,
		"status":             invoice.Status,
	}).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func recomputeInvoiceBalances(tx *gorm.DB, invoiceIds []int) error {
	ids := append([]int(nil), invoiceIds...)
	sort.Ints(ids)
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		if _, err := RecomputeInvoiceBalance(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func recomputePaymentBalance(tx *gorm.DB, paymentId int) (decimal.Decimal, error) {
	applied, err := sumColumn(tx, &SupplierPaymentApplication{}, "amount", "supplier_payment_id = ?", paymentId)
	if err != nil {
		return decimal.Zero, err
	}
	err = tx.Model(&SupplierPayment{}).Where("id = ?", paymentId).Update("applied_amount", applied).Error
	return applied, err
}

// recomputeCreditBalance derives applied and outstanding amounts and the status of a credit.
func recomputeCreditBalance(tx *gorm.DB, creditId int) (*SupplierCredit, error) {
	var credit SupplierCredit
	if err := tx.Where("id = ?", creditId).Take(&credit).Error; err != nil {
		return nil, err
	}
	applied, err := sumColumn(tx, &SupplierCreditApplication{}, "amount", "supplier_credit_id = ?", creditId)
	if err != nil {
		return nil, err
	}
	credit.AppliedAmount = applied
	credit.OutstandingAmount = maxDecimal(decimal.Zero, credit.TotalAmount.Sub(applied))
	switch {
	case applied.IsPositive() && applied.GreaterThanOrEqual(credit.TotalAmount):
		credit.Status = SupplierCreditStatusFullyApplied
	case applied.IsPositive():
		credit.Status = SupplierCreditStatusPartiallyApplied
	case credit.Status == SupplierCreditStatusDraft:
		// kept
	default:
		credit.Status = SupplierCreditStatusPosted
	}
	err = tx.Model(&SupplierCredit{}).Where("id = ?", creditId).Updates(map[string]interface{}{
		"applied_amount":     credit.AppliedAmount,
		"outstanding_amount": credit.OutstandingAmount,
		"status":             credit.Status,
	}).Error
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

// lockInvoices takes row locks on the given invoices of a business, in id order.
func lockInvoices(tx *gorm.DB, businessId string, ids []int) (map[int]*SupplierInvoice, error) {
	result := make(map[int]*SupplierInvoice)
	if len(ids) == 0 {
		return result, nil
	}
	var invoices []*SupplierInvoice
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id IN ?", businessId, ids).
		Order("id").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		result[inv.ID] = inv
	}
	return result, nil
}

// creditableRemainder is what a credit may still absorb on an invoice. By default it is
// total minus paid, ignoring earlier credits; STRICT_CREDIT_REMAINDER uses the outstanding amount.
func creditableRemainder(invoice *SupplierInvoice) decimal.Decimal {
	if config.StrictCreditRemainder() {
		return invoice.OutstandingAmount
	}
	return maxDecimal(decimal.Zero, invoice.TotalAmount.Sub(invoice.PaidAmount))
}

// RebuildBalances recomputes every invoice, payment and credit of the business in ctx, or a
// single invoice when invoiceId is set. It returns how many documents were recomputed.
func RebuildBalances(ctx context.Context, invoiceId *int) (int, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoiceIds []int
		dbCtx := tx.Model(&SupplierInvoice{}).Where("business_id = ?", businessId)
		if invoiceId != nil {
			dbCtx = dbCtx.Where("id = ?", *invoiceId)
		}
		if err := dbCtx.Order("id").Pluck("id", &invoiceIds).Error; err != nil {
			return err
		}
		if _, err := lockInvoices(tx, businessId, invoiceIds); err != nil {
			return err
		}
		if err := recomputeInvoiceBalances(tx, invoiceIds); err != nil {
			return err
		}
		count += len(invoiceIds)
		if invoiceId != nil {
			return nil
		}

		var paymentIds, creditIds []int
		if err := tx.Model(&SupplierPayment{}).Where("business_id = ?", businessId).Order("id").Pluck("id", &paymentIds).Error; err != nil {
			return err
		}
		for _, id := range paymentIds {
			if _, err := recomputePaymentBalance(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Model(&SupplierCredit{}).Where("business_id = ?", businessId).Order("id").Pluck("id", &creditIds).Error; err != nil {
			return err
		}
		for _, id := range creditIds {
			if _, err := recomputeCreditBalance(tx, id); err != nil {
				return err
			}
		}
		count += len(paymentIds) + len(creditIds)
		return nil
	})
	if err != nil {
		return 0, err
	}
	config.LoggerWithContext(ctx).WithField("documents", count).Info("balances rebuilt")
	return count, nil
}
