package models

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

// NewSettlementApplication applies part of a payment or credit to one invoice.
type NewSettlementApplication struct {
	SupplierInvoiceId int             `json:"supplier_invoice_id" validate:"required"`
	Amount            decimal.Decimal `json:"amount"`
}

type settlementKind struct {
	documentName   string
	remainderLabel string
	remainder      func(*SupplierInvoice) decimal.Decimal
}

var (
	paymentSettlement = settlementKind{
		documentName:   "payment",
		remainderLabel: "Application amount (%s) exceeds invoice outstanding amount (%s)",
		remainder:      func(inv *SupplierInvoice) decimal.Decimal { return inv.OutstandingAmount },
	}
	creditSettlement = settlementKind{
		documentName:   "credit",
		remainderLabel: "Credit amount (%s) exceeds invoice creditable amount (%s)",
		remainder:      creditableRemainder,
	}
)

// precheckApplications rejects requests whose applications cannot fit the document total,
// before anything is read or locked.
func precheckApplications(kind settlementKind, total decimal.Decimal, applications []NewSettlementApplication) error {
	errs := utils.FieldErrors{}
	if !total.IsPositive() {
		errs.Add("amount", "Amount must be greater than zero")
	}
	sum := decimal.Zero
	for i, a := range applications {
		if !a.Amount.IsPositive() {
			errs.Add(fmt.Sprintf("applications[%d].amount", i), "Amount must be greater than zero")
		}
		sum = sum.Add(a.Amount)
	}
	if sum.GreaterThan(total) {
		errs.Add("applications", fmt.Sprintf("Total application amount (%s) exceeds %s amount (%s)",
			sum.String(), kind.documentName, total.String()))
	}
	return errs.Err()
}

// checkApplications locks the target invoices and checks supplier ownership and the remainder
// of every application. Applications to the same invoice draw down one running remainder.
func checkApplications(tx *gorm.DB, kind settlementKind, businessId string, supplierId int, applications []NewSettlementApplication) ([]int, error) {
	ids := make([]int, 0, len(applications))
	for _, a := range applications {
		ids = append(ids, a.SupplierInvoiceId)
	}
	ids = utils.UniqueSlice(ids)
	sort.Ints(ids)
	invoices, err := lockInvoices(tx, businessId, ids)
	if err != nil {
		return nil, err
	}

	errs := utils.FieldErrors{}
	remaining := make(map[int]decimal.Decimal, len(invoices))
	for id, inv := range invoices {
		remaining[id] = kind.remainder(inv)
	}
	for i, a := range applications {
		prefix := fmt.Sprintf("applications[%d]", i)
		invoice, ok := invoices[a.SupplierInvoiceId]
		if !ok {
			errs.Add(prefix+".supplierInvoiceId", "Invalid supplierInvoiceId")
			continue
		}
		if invoice.SupplierId != supplierId {
			errs.Add(prefix+".supplierInvoiceId", "Invoice belongs to a different supplier")
			continue
		}
		left := remaining[invoice.ID]
		if a.Amount.GreaterThan(left) {
			errs.Add(prefix+".amount", fmt.Sprintf(kind.remainderLabel, a.Amount.String(), left.String()))
			continue
		}
		remaining[invoice.ID] = left.Sub(a.Amount)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func settlementSupplierExists(ctx context.Context, tx *gorm.DB, businessId string, supplierId int) error {
	if err := utils.ValidateResourceId[Supplier](ctx, tx, businessId, supplierId); err != nil {
		if utils.IsNotFound(err) {
			return utils.NewValidationError("supplierId", "Invalid supplierId")
		}
		return err
	}
	return nil
}
