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

type PurchaseOrder struct {
	ID                 int                   `gorm:"primary_key" json:"id"`
	BusinessId         string                `gorm:"size:64;index;not null;uniqueIndex:idx_purchase_orders_number" json:"business_id"`
	SupplierId         int                   `gorm:"index;not null" json:"supplier_id"`
	SequenceNo         int                   `gorm:"not null;default:0" json:"sequence_no"`
	OrderNumber        string                `gorm:"size:50;not null;uniqueIndex:idx_purchase_orders_number" json:"order_number"`
	OrderDate          time.Time             `gorm:"not null" json:"order_date"`
	Status             PurchaseOrderStatus   `gorm:"size:20;not null;default:'Draft'" json:"status"`
	PaymentMethod      PaymentMethod         `gorm:"size:20" json:"payment_method"`
	ReferenceNumber    string                `gorm:"size:255" json:"reference_number"`
	Notes              string                `gorm:"type:text" json:"notes"`
	PurchaserName      string                `gorm:"size:100" json:"purchaser_name"`
	OrderTotalAmount   decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"order_total_amount"`
	OrderTotalQuantity decimal.Decimal       `gorm:"type:decimal(24,10);default:0" json:"order_total_quantity"`
	Details            []PurchaseOrderDetail `gorm:"foreignKey:PurchaseOrderId" json:"details"`
	CreatedAt          time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchaseOrder struct {
	SupplierId      int                      `json:"supplier_id" validate:"required"`
	OrderNumber     string                   `json:"order_number" validate:"max=50"`
	OrderDate       time.Time                `json:"order_date" validate:"required"`
	Status          *PurchaseOrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod            `json:"payment_method"`
	ReferenceNumber string                   `json:"reference_number" validate:"max=255"`
	Notes           string                   `json:"notes"`
	PurchaserName   string                   `json:"purchaser_name" validate:"max=100"`
	Details         []NewPurchaseOrderDetail `json:"details" validate:"required,min=1,dive"`
}

type PurchaseOrderDetail struct {
	ID              int                     `gorm:"primary_key" json:"id"`
	PurchaseOrderId int                     `gorm:"index;not null" json:"purchase_order_id"`
	ProductId       int                     `gorm:"index;not null" json:"product_id"`
	UomId           int                     `gorm:"not null" json:"uom_id"`
	BaseUomId       int                     `gorm:"not null" json:"base_uom_id"`
	Description     string                  `gorm:"type:text" json:"description"`
	Quantity        decimal.Decimal         `gorm:"type:decimal(24,10);not null" json:"quantity"`
	UnitPrice       decimal.Decimal         `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Unit            decimal.Decimal         `gorm:"type:decimal(24,10);not null" json:"unit"`
	BaseQuantity    decimal.Decimal         `gorm:"type:decimal(24,10);not null" json:"base_quantity"`
	Amount          decimal.Decimal         `gorm:"type:decimal(20,4);not null" json:"amount"`
	Status          PurchaseOrderItemStatus `gorm:"size:20;not null;default:'New'" json:"status"`
}

type NewPurchaseOrderDetail struct {
	DetailId      int             `json:"detail_id"`
	ProductId     int             `json:"product_id" validate:"required"`
	UomId         int             `json:"uom_id" validate:"required"`
	BaseUomId     int             `json:"base_uom_id" validate:"required"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsDeletedItem *bool           `json:"is_deleted_item"`
}

// PurchaseOrderLineSummary is the received and remaining position of one purchase line, in base units.
type PurchaseOrderLineSummary struct {
	PurchaseOrderDetailId int                     `json:"purchase_order_detail_id"`
	ProductId             int                     `json:"product_id"`
	BaseUomId             int                     `json:"base_uom_id"`
	OrderedBaseQuantity   decimal.Decimal         `json:"ordered_base_quantity"`
	ReceivedBaseQuantity  decimal.Decimal         `json:"received_base_quantity"`
	InvoicedBaseQuantity  decimal.Decimal         `json:"invoiced_base_quantity"`
	RemainingToReceive    decimal.Decimal         `json:"remaining_to_receive"`
	RemainingToInvoice    decimal.Decimal         `json:"remaining_to_invoice"`
	Status                PurchaseOrderItemStatus `json:"status"`
}

type PurchaseOrderReceiptSummary struct {
	PurchaseOrderId int                         `json:"purchase_order_id"`
	OrderNumber     string                      `json:"order_number"`
	Status          PurchaseOrderStatus         `json:"status"`
	ReceiptStatus   GoodsReceiptStatus          `json:"receipt_status"`
	Lines           []*PurchaseOrderLineSummary `json:"lines"`
}

func (po PurchaseOrder) GetBusinessId() string { return po.BusinessId }

func (po *PurchaseOrder) detailPointers() []*PurchaseOrderDetail {
	lines := make([]*PurchaseOrderDetail, 0, len(po.Details))
	for i := range po.Details {
		lines = append(lines, &po.Details[i])
	}
	return lines
}

func (po *PurchaseOrder) recalculateTotals() {
	po.OrderTotalAmount = sumDecimals(po.Details, func(d PurchaseOrderDetail) decimal.Decimal { return d.Amount })
	po.OrderTotalQuantity = sumDecimals(po.Details, func(d PurchaseOrderDetail) decimal.Decimal { return d.Quantity })
}

// validate checks header references and every active line, then converts the lines.
// The returned slice is aligned with input.Details; deleted items yield nil.
func (input *NewPurchaseOrder) validate(ctx context.Context, tx *gorm.DB, businessId string) ([]*convertedLine, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	errs := utils.FieldErrors{}

	if err := utils.ValidateResourceId[Supplier](ctx, tx, businessId, input.SupplierId); err != nil {
		errs.Add("supplierId", "Invalid supplierId")
	}

	var productIds, uomIds []int
	for _, d := range input.Details {
		productIds = append(productIds, d.ProductId)
		uomIds = append(uomIds, d.UomId, d.BaseUomId)
	}
	products, err := loadProducts(ctx, tx, businessId, productIds)
	if err != nil {
		return nil, err
	}
	uoms, err := loadUoms(ctx, tx, businessId, uomIds)
	if err != nil {
		return nil, err
	}

	converted := make([]*convertedLine, len(input.Details))
	for i, d := range input.Details {
		if d.IsDeletedItem != nil && *d.IsDeletedItem {
			continue
		}
		prefix := fmt.Sprintf("details[%d]", i)
		product, ok := products[d.ProductId]
		if !ok {
			errs.Add(prefix+".productId", "Invalid productId")
		}
		if !d.Quantity.IsPositive() {
			errs.Add(prefix+".quantity", "Quantity must be greater than zero")
		}
		if d.UnitPrice.IsNegative() {
			errs.Add(prefix+".unitPrice", "Unit price cannot be negative")
		}
		line, ok := uomPairCheck{
			Product:  product,
			Uom:      uoms[d.UomId],
			BaseUom:  uoms[d.BaseUomId],
			Quantity: d.Quantity,
		}.run(errs, prefix)
		if ok {
			converted[i] = &line
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return converted, nil
}

func newPurchaseOrderDetail(purchaseOrderId int, input NewPurchaseOrderDetail, line *convertedLine) PurchaseOrderDetail {
	return PurchaseOrderDetail{
		PurchaseOrderId: purchaseOrderId,
		ProductId:       input.ProductId,
		UomId:           input.UomId,
		BaseUomId:       input.BaseUomId,
		Description:     input.Description,
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		Unit:            line.Unit,
		BaseQuantity:    line.BaseQuantity,
		Amount:          input.UnitPrice.Mul(input.Quantity).Round(MoneyPrecision),
		Status:          PurchaseOrderItemStatusNew,
	}
}

func requestedPurchaseOrderStatus(s *PurchaseOrderStatus) (PurchaseOrderStatus, error) {
	if s == nil {
		return PurchaseOrderStatusDraft, nil
	}
	switch *s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled:
		return *s, nil
	}
	return "", utils.NewValidationError("status", fmt.Sprintf("status %q is derived from receipts and cannot be set", *s))
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	status, err := requestedPurchaseOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if status == PurchaseOrderStatusCancelled {
		return nil, utils.NewValidationError("status", "a new purchase order cannot be cancelled")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer rollbackOnPanic(tx)

	converted, err := input.validate(ctx, tx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderNumber, sequenceNo, err := assignDocumentNumber(tx, businessId, SeriesPrefixPurchaseOrder,
		&PurchaseOrder{}, "order_number", "orderNumber", input.OrderNumber, 0)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	order := PurchaseOrder{
		BusinessId:      businessId,
		SupplierId:      input.SupplierId,
		SequenceNo:      sequenceNo,
		OrderNumber:     orderNumber,
		OrderDate:       input.OrderDate,
		Status:          status,
		PaymentMethod:   input.PaymentMethod,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		PurchaserName:   input.PurchaserName,
	}
	for i, d := range input.Details {
		if converted[i] == nil {
			continue
		}
		order.Details = append(order.Details, newPurchaseOrderDetail(0, d, converted[i]))
	}
	order.recalculateTotals()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := writeAudit(tx, DocumentReferenceTypePurchaseOrder, order.ID, DocumentActionCreate, nil, &order,
		fmt.Sprintf("Purchase order %s created for %v.", order.OrderNumber, order.OrderTotalAmount)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func UpdatePurchaseOrder(ctx context.Context, purchaseOrderId int, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	requestedStatus, err := requestedPurchaseOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}

	unlock, err := utils.DocumentLock(ctx, purchaseOrderLockKey(businessId, purchaseOrderId), "PurchaseOrder", "UpdatePurchaseOrder")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *PurchaseOrder
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := utils.FetchModelForUpdate[PurchaseOrder](ctx, tx, businessId, purchaseOrderId)
		if err != nil {
			return utils.NewNotFoundError("purchase order", purchaseOrderId)
		}
		lines, err := lockPurchaseOrderDetails(tx, purchaseOrderId)
		if err != nil {
			return err
		}
		existing.Details = make([]PurchaseOrderDetail, 0, len(lines))
		for _, l := range lines {
			existing.Details = append(existing.Details, *l)
		}
		before := *existing

		converted, err := input.validate(ctx, tx, businessId)
		if err != nil {
			return err
		}

		orderNumber := existing.OrderNumber
		sequenceNo := existing.SequenceNo
		if requested := strings.TrimSpace(input.OrderNumber); requested != "" && requested != existing.OrderNumber {
			orderNumber, sequenceNo, err = assignDocumentNumber(tx, businessId, SeriesPrefixPurchaseOrder,
				&PurchaseOrder{}, "order_number", "orderNumber", requested, purchaseOrderId)
			if err != nil {
				return err
			}
		}

		detailIds := make([]int, 0, len(lines))
		byId := make(map[int]*PurchaseOrderDetail, len(lines))
		for _, l := range lines {
			detailIds = append(detailIds, l.ID)
			byId[l.ID] = l
		}
		received, err := receivedBaseQuantities(tx, detailIds, 0)
		if err != nil {
			return err
		}
		invoiced, err := invoicedBaseQuantities(tx, detailIds, 0)
		if err != nil {
			return err
		}
		references, err := purchaseLineReferenceCounts(tx, detailIds)
		if err != nil {
			return err
		}

		if input.SupplierId != existing.SupplierId {
			referenced, err := purchaseOrderReferenced(ctx, tx, businessId, purchaseOrderId, detailIds)
			if err != nil {
				return err
			}
			if referenced {
				return utils.NewConflictError("purchase order %s is referenced by receipts, invoices or credits; supplier cannot change", existing.OrderNumber)
			}
		}

		if requestedStatus == PurchaseOrderStatusCancelled && existing.Status != PurchaseOrderStatusCancelled {
			for _, id := range detailIds {
				if references[id] > 0 {
					return utils.NewConflictError("purchase order %s has receipts or invoices and cannot be cancelled", existing.OrderNumber)
				}
			}
		}

		errs := utils.FieldErrors{}
		for i, d := range input.Details {
			prefix := fmt.Sprintf("details[%d]", i)
			if d.DetailId == 0 {
				if converted[i] == nil {
					continue
				}
				newItem := newPurchaseOrderDetail(purchaseOrderId, d, converted[i])
				if err := tx.Create(&newItem).Error; err != nil {
					return err
				}
				continue
			}
			existingItem, ok := byId[d.DetailId]
			if !ok {
				errs.Add(prefix+".detailId", "Invalid detailId")
				continue
			}
			referenced := references[existingItem.ID] > 0
			if d.IsDeletedItem != nil && *d.IsDeletedItem {
				if referenced {
					return utils.NewConflictError("purchase order line %d is referenced by receipts or invoices and cannot be deleted", existingItem.ID)
				}
				if err := tx.Delete(existingItem).Error; err != nil {
					return err
				}
				delete(byId, existingItem.ID)
				continue
			}
			if referenced && (existingItem.ProductId != d.ProductId || existingItem.UomId != d.UomId || existingItem.BaseUomId != d.BaseUomId) {
				return utils.NewConflictError("purchase order line %d is referenced by receipts or invoices; product and units cannot change", existingItem.ID)
			}
			updated := newPurchaseOrderDetail(purchaseOrderId, d, converted[i])
			if floor := maxDecimal(received[existingItem.ID], invoiced[existingItem.ID]); updated.BaseQuantity.LessThan(floor) {
				return utils.NewConflictError("Ordered quantity (%v) cannot be reduced below received or invoiced quantity (%v)", updated.BaseQuantity, floor)
			}
			updated.ID = existingItem.ID
			updated.Status = lineItemStatus(updated.BaseQuantity, received[existingItem.ID])
			if err := tx.Save(&updated).Error; err != nil {
				return err
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		status := existing.Status
		if requestedStatus != existing.Status {
			switch existing.Status {
			case PurchaseOrderStatusPartial, PurchaseOrderStatusClosed:
				if requestedStatus == PurchaseOrderStatusCancelled {
					status = requestedStatus
				}
			default:
				status = requestedStatus
			}
		}

		if err := tx.Model(&PurchaseOrder{}).Where("id = ?", purchaseOrderId).Updates(map[string]interface{}{
			"supplier_id":      input.SupplierId,
			"sequence_no":      sequenceNo,
			"order_number":     orderNumber,
			"order_date":       input.OrderDate,
			"status":           status,
			"payment_method":   input.PaymentMethod,
			"reference_number": input.ReferenceNumber,
			"notes":            input.Notes,
			"purchaser_name":   input.PurchaserName,
		}).Error; err != nil {
			return err
		}

		if _, err := refreshPurchaseOrderStatus(tx, purchaseOrderId); err != nil {
			return err
		}
		result, err = loadPurchaseOrder(tx, businessId, purchaseOrderId)
		if err != nil {
			return err
		}
		result.recalculateTotals()
		if err := tx.Model(&PurchaseOrder{}).Where("id = ?", purchaseOrderId).Updates(map[string]interface{}{
			"order_total_amount":   result.OrderTotalAmount,
			"order_total_quantity": result.OrderTotalQuantity,
		}).Error; err != nil {
			return err
		}
		if len(result.Details) == 0 {
			return utils.NewValidationError("details", "a purchase order needs at least one line")
		}
		return writeAudit(tx, DocumentReferenceTypePurchaseOrder, purchaseOrderId, DocumentActionUpdate, &before, result,
			fmt.Sprintf("Purchase order %s updated.", result.OrderNumber))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// purchaseOrderReferenced reports whether any receipt, invoice or credit points at the order
// or at one of its lines.
func purchaseOrderReferenced(ctx context.Context, tx *gorm.DB, businessId string, id int, detailIds []int) (bool, error) {
	receipts, err := utils.ResourceCountWhere[GoodsReceipt](ctx, tx, businessId, "purchase_order_id = ?", id)
	if err != nil {
		return false, err
	}
	invoices, err := utils.ResourceCountWhere[SupplierInvoice](ctx, tx, businessId, "purchase_order_id = ?", id)
	if err != nil {
		return false, err
	}
	credits, err := utils.ResourceCountWhere[SupplierCredit](ctx, tx, businessId, "purchase_order_id = ?", id)
	if err != nil {
		return false, err
	}
	references, err := purchaseLineReferenceCounts(tx, detailIds)
	if err != nil {
		return false, err
	}
	total := receipts + invoices + credits
	for _, c := range references {
		total += c
	}
	return total > 0, nil
}

func DeletePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}

	var result *PurchaseOrder
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := utils.FetchModelForUpdate[PurchaseOrder](ctx, tx, businessId, id); err != nil {
			return utils.NewNotFoundError("purchase order", id)
		}
		order, err := loadPurchaseOrder(tx, businessId, id)
		if err != nil {
			return err
		}

		referenced, err := purchaseOrderReferenced(ctx, tx, businessId, id, idsOfDetails(order.detailPointers()))
		if err != nil {
			return err
		}
		if referenced {
			return utils.NewConflictError("purchase order %s is referenced by receipts, invoices or credits and cannot be deleted", order.OrderNumber)
		}

		if err := tx.Where("purchase_order_id = ?", id).Delete(&PurchaseOrderDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&PurchaseOrder{}, id).Error; err != nil {
			return err
		}
		result = order
		return writeAudit(tx, DocumentReferenceTypePurchaseOrder, id, DocumentActionDelete, order, nil,
			fmt.Sprintf("Purchase order %s deleted.", order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	order, err := loadPurchaseOrder(config.GetDB().WithContext(ctx), businessId, id)
	if utils.IsNotFound(err) {
		return nil, utils.NewNotFoundError("purchase order", id)
	}
	return order, err
}

func ListPurchaseOrders(ctx context.Context, supplierId *int, status *PurchaseOrderStatus) ([]*PurchaseOrder, error) {
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
	var results []*PurchaseOrder
	err = dbCtx.Preload("Details", orderById).Order("order_date DESC").Order("id DESC").Find(&results).Error
	return results, err
}

// GetPurchaseOrderReceiptSummary reports ordered, received and invoiced base quantities per line.
func GetPurchaseOrderReceiptSummary(ctx context.Context, id int) (*PurchaseOrderReceiptSummary, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB().WithContext(ctx)
	order, err := loadPurchaseOrder(db, businessId, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError("purchase order", id)
		}
		return nil, err
	}
	lines := order.detailPointers()
	ids := idsOfDetails(lines)
	received, err := receivedBaseQuantities(db, ids, 0)
	if err != nil {
		return nil, err
	}
	invoiced, err := invoicedBaseQuantities(db, ids, 0)
	if err != nil {
		return nil, err
	}

	summary := PurchaseOrderReceiptSummary{
		PurchaseOrderId: order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		ReceiptStatus:   deriveReceiptStatus(lines, received),
	}
	for _, line := range lines {
		got := received[line.ID]
		billed := invoiced[line.ID]
		summary.Lines = append(summary.Lines, &PurchaseOrderLineSummary{
			PurchaseOrderDetailId: line.ID,
			ProductId:             line.ProductId,
			BaseUomId:             line.BaseUomId,
			OrderedBaseQuantity:   line.BaseQuantity,
			ReceivedBaseQuantity:  got,
			InvoicedBaseQuantity:  billed,
			RemainingToReceive:    maxDecimal(decimal.Zero, line.BaseQuantity.Sub(got)),
			RemainingToInvoice:    maxDecimal(decimal.Zero, minDecimal(line.BaseQuantity, got).Sub(billed)),
			Status:                lineItemStatus(line.BaseQuantity, got),
		})
	}
	return &summary, nil
}

// refreshPurchaseOrderStatus re-derives line statuses and the header status from all receipts.
// A cancelled order keeps its status.
func refreshPurchaseOrderStatus(tx *gorm.DB, purchaseOrderId int) (GoodsReceiptStatus, error) {
	var order PurchaseOrder
	if err := tx.Where("id = ?", purchaseOrderId).Take(&order).Error; err != nil {
		return "", err
	}
	var lines []*PurchaseOrderDetail
	if err := tx.Where("purchase_order_id = ?", purchaseOrderId).Order("id").Find(&lines).Error; err != nil {
		return "", err
	}
	received, err := receivedBaseQuantities(tx, idsOfDetails(lines), 0)
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		status := lineItemStatus(line.BaseQuantity, received[line.ID])
		if status != line.Status {
			if err := tx.Model(&PurchaseOrderDetail{}).Where("id = ?", line.ID).Update("status", status).Error; err != nil {
				return "", err
			}
		}
	}

	receiptStatus := deriveReceiptStatus(lines, received)
	if order.Status == PurchaseOrderStatusCancelled {
		return receiptStatus, nil
	}
	next := order.Status
	switch receiptStatus {
	case GoodsReceiptStatusComplete:
		next = PurchaseOrderStatusClosed
	case GoodsReceiptStatusPartial:
		next = PurchaseOrderStatusPartial
	default:
		if order.Status != PurchaseOrderStatusDraft {
			next = PurchaseOrderStatusConfirmed
		}
	}
	if next != order.Status {
		if err := tx.Model(&PurchaseOrder{}).Where("id = ?", purchaseOrderId).Update("status", next).Error; err != nil {
			return "", err
		}
	}
	return receiptStatus, nil
}

func loadPurchaseOrder(db *gorm.DB, businessId string, id int) (*PurchaseOrder, error) {
	var order PurchaseOrder
	err := db.Where("business_id = ?", businessId).Preload("Details", orderById).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &order, nil
}

func orderById(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func idsOfDetails(lines []*PurchaseOrderDetail) []int {
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	return ids
}

func purchaseOrderLockKey(businessId string, purchaseOrderId int) string {
	return fmt.Sprintf("purchase_order:%s:%d", businessId, purchaseOrderId)
}
