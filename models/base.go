package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

const (
	// UnitPrecision is the scale used for conversion ratios and base quantities.
	UnitPrecision int32 = 10
	// MoneyPrecision is the scale used for amounts.
	MoneyPrecision int32 = 4
)

var ErrBusinessIdRequired = errors.New("business id is required")

// MigrateTable creates or updates every table owned by this service.
func MigrateTable() error {
	db := config.GetDB()
	if db == nil {
		return errors.New("database not initialized")
	}
	return db.AutoMigrate(
		&UnitCategory{}, &Uom{}, &Product{}, &Supplier{},
		&DocumentSeries{},
		&PurchaseOrder{}, &PurchaseOrderDetail{},
		&GoodsReceipt{}, &GoodsReceiptDetail{},
		&SupplierInvoice{}, &SupplierInvoiceDetail{},
		&SupplierPayment{}, &SupplierPaymentApplication{},
		&SupplierCredit{}, &SupplierCreditApplication{},
		&History{}, &DocumentEventRecord{}, &ReconciliationReport{},
	)
}

func businessIdFrom(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", ErrBusinessIdRequired
	}
	return businessId, nil
}

// calculateDueDate adds the payment terms in days. Nil when either side is missing.
func calculateDueDate(date *time.Time, paymentTerms *int) *time.Time {
	if date == nil || paymentTerms == nil {
		return nil
	}
	dueDate := date.AddDate(0, 0, *paymentTerms)
	return &dueDate
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// rollbackOnPanic is deferred right after Begin.
func rollbackOnPanic(tx *gorm.DB) {
	if r := recover(); r != nil {
		tx.Rollback()
		panic(r)
	}
}

func sumDecimals[T any](items []T, get func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(get(it))
	}
	return total
}
