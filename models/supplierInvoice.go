package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type SupplierInvoice struct {
	ID                    int                     `gorm:"primary_key" json:"id"`
	BusinessId            string                  `gorm:"size:64;index;not null;uniqueIndex:idx_supplier_invoices_number" json:"business_id"`
	SupplierId            int                     `gorm:"index;not null" json:"supplier_id"`
	PurchaseOrderId       *int                    `gorm:"index" json:"purchase_order_id"`
	SequenceNo            int                     `gorm:"not null;default:0" json:"sequence_no"`
	InvoiceNumber         string                  `gorm:"size:50;not null;uniqueIndex:idx_supplier_invoices_number" json:"invoice_number"`
	SupplierInvoiceNumber string                  `gorm:"size:100;index" json:"supplier_invoice_number"`
	InvoiceDate           *time.Time              `json:"invoice_date"`
	PaymentTerms          *int                    `json:"payment_terms"`
	DueDate               *time.Time              `gorm:"index" json:"due_date"`
	Status                SupplierInvoiceStatus   `gorm:"size:20;not null;default:'DRAFT'" json:"status"`
	TotalAmount           decimal.Decimal         `gorm:"type:decimal(20,4);not null;default:0" json:"total_amount"`
	PaidAmount            decimal.Decimal         `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	CreditedAmount        decimal.Decimal         `gorm:"type:decimal(20,4);not null;default:0" json:"credited_amount"`
	OutstandingAmount     decimal.Decimal         `gorm:"type:decimal(20,4);not null;default:0" json:"outstanding_amount"`
	Notes                 string                  `gorm:"type:text" json:"notes"`
	Details               []SupplierInvoiceDetail `gorm:"foreignKey:SupplierInvoiceId" json:"details"`
	CreatedAt             time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

type SupplierInvoiceDetail struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	SupplierInvoiceId     int             `gorm:"not null;uniqueIndex:idx_supplier_invoice_details_line" json:"supplier_invoice_id"`
	PurchaseOrderDetailId int             `gorm:"not null;index;uniqueIndex:idx_supplier_invoice_details_line" json:"purchase_order_detail_id"`
	ProductId             int             `gorm:"index;not null" json:"product_id"`
	UomId                 int             `gorm:"not null" json:"uom_id"`
	BaseUomId             int             `gorm:"not null" json:"base_uom_id"`
	Quantity              decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"quantity"`
	UnitPrice             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Unit                  decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"unit"`
	BaseQuantity          decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"base_quantity"`
	Amount                decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

type NewSupplierInvoice struct {
	SupplierId            int                        `json:"supplier_id" validate:"required"`
	PurchaseOrderId       *int                       `json:"purchase_order_id"`
	InvoiceNumber         string                     `json:"invoice_number" validate:"max=50"`
	SupplierInvoiceNumber string                     `json:"supplier_invoice_number" validate:"max=100"`
	InvoiceDate           *time.Time                 `json:"invoice_date"`
	PaymentTerms          *int                       `json:"payment_terms" validate:"omitempty,min=0"`
	Status                *SupplierInvoiceStatus     `json:"status"`
	Notes                 string                     `json:"notes"`
	Details               []NewSupplierInvoiceDetail `json:"details" validate:"omitempty,dive"`
}

type NewSupplierInvoiceDetail struct {
	PurchaseOrderDetailId int             `json:"purchase_order_detail_id" validate:"required"`
	ProductId             int             `json:"product_id" validate:"required"`
	UomId                 int             `json:"uom_id" validate:"required"`
	BaseUomId             int             `json:"base_uom_id" validate:"required"`
	Quantity              decimal.Decimal `json:"quantity"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
}

type InvoiceOutstanding struct {
	SupplierInvoiceId int                   `json:"supplier_invoice_id"`
	InvoiceNumber     string                `json:"invoice_number"`
	Status            SupplierInvoiceStatus `json:"status"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	CreditedAmount    decimal.Decimal       `json:"credited_amount"`
	OutstandingAmount decimal.Decimal       `json:"outstanding_amount"`
}

func (inv SupplierInvoice) GetBusinessId() string { return inv.BusinessId }

func requestedInvoiceStatus(s *SupplierInvoiceStatus, fallback SupplierInvoiceStatus) (SupplierInvoiceStatus, error) {
	if s == nil {
		return fallback, nil
	}
	switch *s {
	case SupplierInvoiceStatusDraft, SupplierInvoiceStatusPosted, SupplierInvoiceStatusClosed:
		return *s, nil
	}
	return "", utils.NewValidationError("status", fmt.Sprintf("status %q is derived from payments and cannot be set", *s))
}

func supplierLockKey(businessId string, supplierId int) string {
	return fmt.Sprintf("supplier:%s:%d", businessId, supplierId)
}

// priceVarianceMessage returns a message when unitPrice is outside the tolerance band around
// the purchase price, or "" when it is acceptable.
func priceVarianceMessage(poPrice decimal.Decimal, unitPrice decimal.Decimal, tolerance decimal.Decimal) string {
	hundred := decimal.NewFromInt(100)
	if poPrice.IsZero() {
		if unitPrice.IsZero() {
			return ""
		}
		return fmt.Sprintf("Price variance exceeds tolerance (%s%%): PO price %s, invoice price %s",
			tolerance.Mul(hundred).StringFixed(2), poPrice.String(), unitPrice.String())
	}
	variance := unitPrice.Sub(poPrice).Abs().DivRound(poPrice.Abs(), UnitPrecision)
	if variance.LessThanOrEqual(tolerance) {
		return ""
	}
	return fmt.Sprintf("Price variance (%s%%) exceeds tolerance (%s%%): PO price %s, invoice price %s",
		variance.Mul(hundred).StringFixed(2), tolerance.Mul(hundred).StringFixed(2), poPrice.String(), unitPrice.String())
}

// buildInvoiceDetails runs the per-line checks of an invoice: purchase line membership, product
// and UOM bindings, the 3-way quantity match and the price tolerance. Problems go to errs.
// The purchase lines are row-locked for the rest of the transaction.
func buildInvoiceDetails(ctx context.Context, tx *gorm.DB, businessId string, supplierId int, purchaseOrderId *int, input []NewSupplierInvoiceDetail, excludeInvoiceId int, errs utils.FieldErrors) ([]SupplierInvoiceDetail, error) {
	var lineIds, productIds, uomIds []int
	for _, d := range input {
		lineIds = append(lineIds, d.PurchaseOrderDetailId)
		productIds = append(productIds, d.ProductId)
		uomIds = append(uomIds, d.UomId, d.BaseUomId)
	}
	lineIds = utils.UniqueSlice(lineIds)

	poLines, err := lockPurchaseOrderDetailsByIds(tx, lineIds)
	if err != nil {
		return nil, err
	}
	var orderIds []int
	for _, l := range poLines {
		orderIds = append(orderIds, l.PurchaseOrderId)
	}
	orders, err := utils.FetchModelsByIds(ctx, tx, businessId, orderIds, func(o *PurchaseOrder) int { return o.ID })
	if err != nil {
		return nil, err
	}
	products, err := loadProducts(ctx, tx, businessId, productIds)
	if err != nil {
		return nil, err
	}
	uoms, err := loadUoms(ctx, tx, businessId, uomIds)
	if err != nil {
		return nil, err
	}
	received, err := receivedBaseQuantities(tx, lineIds, 0)
	if err != nil {
		return nil, err
	}
	invoiced, err := invoicedBaseQuantities(tx, lineIds, excludeInvoiceId)
	if err != nil {
		return nil, err
	}
	tolerance := config.PriceTolerance()

	seen := make(map[int]bool, len(input))
	details := make([]SupplierInvoiceDetail, 0, len(input))
	for i, d := range input {
		prefix := fmt.Sprintf("details[%d]", i)
		poLine, ok := poLines[d.PurchaseOrderDetailId]
		var order *PurchaseOrder
		if ok {
			order, ok = orders[poLine.PurchaseOrderId]
		}
		if !ok || (purchaseOrderId != nil && poLine.PurchaseOrderId != *purchaseOrderId) {
			errs.Add(prefix+".purchaseOrderDetailId", "Invalid purchaseOrderDetailId")
			continue
		}
		if order.SupplierId != supplierId {
			errs.Add(prefix+".purchaseOrderDetailId", "Purchase order line belongs to a different supplier")
			continue
		}
		if seen[poLine.ID] {
			errs.Add(prefix+".purchaseOrderDetailId", "Duplicate purchaseOrderDetailId")
			continue
		}
		seen[poLine.ID] = true

		product, ok := products[d.ProductId]
		if !ok {
			errs.Add(prefix+".productId", "Invalid productId")
		} else if product.ID != poLine.ProductId {
			errs.Add(prefix+".productId", "Product does not match purchase order line")
		}
		if !d.Quantity.IsPositive() {
			errs.Add(prefix+".quantity", "Quantity must be greater than zero")
			continue
		}
		if d.UnitPrice.IsNegative() {
			errs.Add(prefix+".unitPrice", "Unit price cannot be negative")
		}
		line, ok := uomPairCheck{
			Product:         product,
			Uom:             uoms[d.UomId],
			BaseUom:         uoms[d.BaseUomId],
			RequiredBaseUom: poLine.BaseUomId,
			Quantity:        d.Quantity,
		}.run(errs, prefix)
		if !ok {
			continue
		}

		total := invoiced[poLine.ID].Add(line.BaseQuantity)
		if got := received[poLine.ID]; total.GreaterThan(got) {
			errs.Add(prefix+".quantity", fmt.Sprintf("Invoiced (%s) exceeds received (%s)", total.String(), got.String()))
		}
		if total.GreaterThan(poLine.BaseQuantity) {
			errs.Set(prefix+".quantity", fmt.Sprintf("Invoiced (%s) exceeds ordered (%s)", total.String(), poLine.BaseQuantity.String()))
		}
		if msg := priceVarianceMessage(poLine.UnitPrice, d.UnitPrice, tolerance); msg != "" {
			errs.Add(prefix+".unitPrice", msg)
		}
		invoiced[poLine.ID] = total

		details = append(details, SupplierInvoiceDetail{
			PurchaseOrderDetailId: poLine.ID,
			ProductId:             poLine.ProductId,
			UomId:                 d.UomId,
			BaseUomId:             d.BaseUomId,
			Quantity:              d.Quantity,
			UnitPrice:             d.UnitPrice,
			Unit:                  line.Unit,
			BaseQuantity:          line.BaseQuantity,
			Amount:                d.UnitPrice.Mul(d.Quantity).Round(MoneyPrecision),
		})
	}
	return details, nil
}

// validateInvoiceHeader checks the supplier, the optional purchase order and the supplier's own
// invoice number. A missing purchase order is NotFound, the rest goes to errs.
func validateInvoiceHeader(ctx context.Context, tx *gorm.DB, businessId string, input *NewSupplierInvoice, exceptId int, errs utils.FieldErrors) (*Supplier, error) {
	supplier, err := utils.FetchModelTx[Supplier](ctx, tx, businessId, input.SupplierId)
	if err != nil {
		if !utils.IsNotFound(err) {
			return nil, err
		}
		errs.Add("supplierId", "Invalid supplierId")
	}
	if input.PurchaseOrderId != nil {
		order, err := utils.FetchModelTx[PurchaseOrder](ctx, tx, businessId, *input.PurchaseOrderId)
		if err != nil {
			if utils.IsNotFound(err) {
				return nil, utils.NewNotFoundError("purchase order", *input.PurchaseOrderId)
			}
			return nil, err
		}
		if order.SupplierId != input.SupplierId {
			errs.Add("purchaseOrderId", "Purchase order belongs to a different supplier")
		}
	}
	if number := strings.TrimSpace(input.SupplierInvoiceNumber); number != "" {
		count, err := utils.ResourceCountWhere[SupplierInvoice](ctx, tx, businessId,
			"supplier_id = ? AND supplier_invoice_number = ? AND id <> ?", input.SupplierId, number, exceptId)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			errs.Add("supplierInvoiceNumber", fmt.Sprintf("Supplier invoice number %q already exists for this supplier", number))
		}
	}
	return supplier, nil
}

func invoicePaymentTerms(input *NewSupplierInvoice, supplier *Supplier) *int {
	if input.PaymentTerms != nil || supplier == nil {
		return input.PaymentTerms
	}
	return supplier.PaymentTerms
}

func CreateSupplierInvoice(ctx context.Context, input *NewSupplierInvoice) (*SupplierInvoice, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if len(input.Details) == 0 {
		return nil, utils.NewValidationError("details", "At least one line is required")
	}
	status, err := requestedInvoiceStatus(input.Status, SupplierInvoiceStatusDraft)
	if err != nil {
		return nil, err
	}

	unlock, err := utils.DocumentLock(ctx, supplierLockKey(businessId, input.SupplierId), "SupplierInvoice", "CreateSupplierInvoice")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *SupplierInvoice
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		errs := utils.FieldErrors{}
		supplier, err := validateInvoiceHeader(ctx, tx, businessId, input, 0, errs)
		if err != nil {
			return err
		}
		details, err := buildInvoiceDetails(ctx, tx, businessId, input.SupplierId, input.PurchaseOrderId, input.Details, 0, errs)
		if err != nil {
			return err
		}
		if err := errs.Err(); err != nil {
			return err
		}

		invoiceNumber, sequenceNo, err := assignDocumentNumber(tx, businessId, SeriesPrefixSupplierInvoice,
			&SupplierInvoice{}, "invoice_number", "invoiceNumber", input.InvoiceNumber, 0)
		if err != nil {
			return err
		}
		paymentTerms := invoicePaymentTerms(input, supplier)
		invoice := SupplierInvoice{
			BusinessId:            businessId,
			SupplierId:            input.SupplierId,
			PurchaseOrderId:       input.PurchaseOrderId,
			SequenceNo:            sequenceNo,
			InvoiceNumber:         invoiceNumber,
			SupplierInvoiceNumber: strings.TrimSpace(input.SupplierInvoiceNumber),
			InvoiceDate:           input.InvoiceDate,
			PaymentTerms:          paymentTerms,
			DueDate:               calculateDueDate(input.InvoiceDate, paymentTerms),
			Status:                status,
			Notes:                 input.Notes,
			Details:               details,
		}
		invoice.TotalAmount = sumDecimals(details, func(d SupplierInvoiceDetail) decimal.Decimal { return d.Amount })
		invoice.OutstandingAmount = invoice.TotalAmount
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		recomputed, err := RecomputeInvoiceBalance(tx, invoice.ID)
		if err != nil {
			return err
		}
		recomputed.Details = invoice.Details
		result = recomputed
		return writeAudit(tx, DocumentReferenceTypeSupplierInvoice, invoice.ID, DocumentActionCreate, nil, result,
			fmt.Sprintf("Supplier invoice %s created for %v.", invoice.InvoiceNumber, invoice.TotalAmount))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateSupplierInvoice always updates the header. Lines are replaced only when input carries
// lines; the replaced lines are left out of the running totals.
func UpdateSupplierInvoice(ctx context.Context, id int, input *NewSupplierInvoice) (*SupplierInvoice, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	unlock, err := utils.DocumentLock(ctx, supplierLockKey(businessId, input.SupplierId), "SupplierInvoice", "UpdateSupplierInvoice")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *SupplierInvoice
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockInvoice(ctx, tx, businessId, id)
		if err != nil {
			return err
		}
		before := *existing
		status, err := requestedInvoiceStatus(input.Status, existing.Status)
		if err != nil {
			return err
		}

		hasApplications := existing.PaidAmount.IsPositive() || existing.CreditedAmount.IsPositive()
		if input.SupplierId != existing.SupplierId && hasApplications {
			return utils.NewConflictError("invoice %s has payments or credits; its supplier cannot change", existing.InvoiceNumber)
		}

		errs := utils.FieldErrors{}
		supplier, err := validateInvoiceHeader(ctx, tx, businessId, input, id, errs)
		if err != nil {
			return err
		}
		if len(input.Details) == 0 && !samePurchaseOrder(existing.PurchaseOrderId, input.PurchaseOrderId) {
			errs.Add("purchaseOrderId", "Changing the purchase order requires new lines")
		}
		if len(input.Details) == 0 && input.SupplierId != existing.SupplierId {
			errs.Add("supplierId", "Changing the supplier requires new lines")
		}

		var details []SupplierInvoiceDetail
		if len(input.Details) > 0 {
			details, err = buildInvoiceDetails(ctx, tx, businessId, input.SupplierId, input.PurchaseOrderId, input.Details, id, errs)
			if err != nil {
				return err
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		invoiceNumber, sequenceNo := existing.InvoiceNumber, existing.SequenceNo
		if requested := strings.TrimSpace(input.InvoiceNumber); requested != "" && requested != existing.InvoiceNumber {
			invoiceNumber, sequenceNo, err = assignDocumentNumber(tx, businessId, SeriesPrefixSupplierInvoice,
				&SupplierInvoice{}, "invoice_number", "invoiceNumber", requested, id)
			if err != nil {
				return err
			}
		}

		if len(input.Details) > 0 {
			newTotal := sumDecimals(details, func(d SupplierInvoiceDetail) decimal.Decimal { return d.Amount })
			settled := existing.PaidAmount.Add(existing.CreditedAmount)
			if newTotal.LessThan(settled) {
				return utils.NewConflictError("Invoice total (%s) cannot fall below paid and credited amount (%s)", newTotal.String(), settled.String())
			}
			if err := tx.Where("supplier_invoice_id = ?", id).Delete(&SupplierInvoiceDetail{}).Error; err != nil {
				return err
			}
			for i := range details {
				details[i].SupplierInvoiceId = id
			}
			if err := tx.Create(&details).Error; err != nil {
				return err
			}
		}

		paymentTerms := invoicePaymentTerms(input, supplier)
		if err := tx.Model(&SupplierInvoice{}).Where("id = ?", id).Updates(map[string]interface{}{
			"supplier_id":             input.SupplierId,
			"purchase_order_id":       input.PurchaseOrderId,
			"invoice_number":          invoiceNumber,
			"sequence_no":             sequenceNo,
			"supplier_invoice_number": strings.TrimSpace(input.SupplierInvoiceNumber),
			"invoice_date":            input.InvoiceDate,
			"payment_terms":           paymentTerms,
			"due_date":                calculateDueDate(input.InvoiceDate, paymentTerms),
			"status":                  status,
			"notes":                   input.Notes,
		}).Error; err != nil {
			return err
		}

		if _, err := RecomputeInvoiceBalance(tx, id); err != nil {
			return err
		}
		result, err = loadSupplierInvoice(tx, businessId, id)
		if err != nil {
			return err
		}
		return writeAudit(tx, DocumentReferenceTypeSupplierInvoice, id, DocumentActionUpdate, &before, result,
			fmt.Sprintf("Supplier invoice %s updated.", result.InvoiceNumber))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func DeleteSupplierInvoice(ctx context.Context, id int) (*SupplierInvoice, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var result *SupplierInvoice
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockInvoice(ctx, tx, businessId, id); err != nil {
			return err
		}
		invoice, err := loadSupplierInvoice(tx, businessId, id)
		if err != nil {
			return err
		}
		var payments, credits int64
		if err := tx.Model(&SupplierPaymentApplication{}).Where("supplier_invoice_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if err := tx.Model(&SupplierCreditApplication{}).Where("supplier_invoice_id = ?", id).Count(&credits).Error; err != nil {
			return err
		}
		if payments+credits > 0 {
			return utils.NewConflictError("invoice %s has payment or credit applications; remove them first", invoice.InvoiceNumber)
		}
		if err := tx.Where("supplier_invoice_id = ?", id).Delete(&SupplierInvoiceDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&SupplierInvoice{}, id).Error; err != nil {
			return err
		}
		result = invoice
		return writeAudit(tx, DocumentReferenceTypeSupplierInvoice, id, DocumentActionDelete, invoice, nil,
			fmt.Sprintf("Supplier invoice %s deleted.", invoice.InvoiceNumber))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetSupplierInvoice(ctx context.Context, id int) (*SupplierInvoice, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	return loadSupplierInvoice(config.GetDB().WithContext(ctx), businessId, id)
}

func ListSupplierInvoices(ctx context.Context, supplierId *int, status *SupplierInvoiceStatus) ([]*SupplierInvoice, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if supplierId != nil {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var results []*SupplierInvoice
	err = dbCtx.Preload("Details", orderById).Order("id DESC").Find(&results).Error
	return results, err
}

// GetInvoiceOutstanding is a read of the stored balance.
func GetInvoiceOutstanding(ctx context.Context, id int) (*InvoiceOutstanding, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	invoice, err := utils.FetchModel[SupplierInvoice](ctx, businessId, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError("supplier invoice", id)
		}
		return nil, err
	}
	return &InvoiceOutstanding{
		SupplierInvoiceId: invoice.ID,
		InvoiceNumber:     invoice.InvoiceNumber,
		Status:            invoice.Status,
		TotalAmount:       invoice.TotalAmount,
		PaidAmount:        invoice.PaidAmount,
		CreditedAmount:    invoice.CreditedAmount,
		OutstandingAmount: invoice.OutstandingAmount,
	}, nil
}

func lockInvoice(ctx context.Context, tx *gorm.DB, businessId string, id int) (*SupplierInvoice, error) {
	invoice, err := utils.FetchModelForUpdate[SupplierInvoice](ctx, tx, businessId, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError("supplier invoice", id)
		}
		return nil, err
	}
	return invoice, nil
}

func loadSupplierInvoice(db *gorm.DB, businessId string, id int) (*SupplierInvoice, error) {
	var invoice SupplierInvoice
	err := db.Where("business_id = ?", businessId).Preload("Details", orderById).First(&invoice, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("supplier invoice", id)
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func samePurchaseOrder(a *int, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
