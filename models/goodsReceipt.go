package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type GoodsReceipt struct {
	ID              int                  `gorm:"primary_key" json:"id"`
	BusinessId      string               `gorm:"size:64;index;not null;uniqueIndex:idx_goods_receipts_number" json:"business_id"`
	PurchaseOrderId int                  `gorm:"index;not null" json:"purchase_order_id"`
	SequenceNo      int                  `gorm:"not null;default:0" json:"sequence_no"`
	ReceiptNumber   string               `gorm:"size:50;not null;uniqueIndex:idx_goods_receipts_number" json:"receipt_number"`
	ReceivedDate    time.Time            `gorm:"not null" json:"received_date"`
	ReceivedBy      string               `gorm:"size:100" json:"received_by"`
	Notes           string               `gorm:"type:text" json:"notes"`
	Status          GoodsReceiptStatus   `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Details         []GoodsReceiptDetail `gorm:"foreignKey:GoodsReceiptId" json:"details"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type GoodsReceiptDetail struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	GoodsReceiptId        int             `gorm:"index;not null" json:"goods_receipt_id"`
	PurchaseOrderDetailId int             `gorm:"index;not null" json:"purchase_order_detail_id"`
	ProductId             int             `gorm:"index;not null" json:"product_id"`
	UomId                 int             `gorm:"not null" json:"uom_id"`
	BaseUomId             int             `gorm:"not null" json:"base_uom_id"`
	QuantityReceived      decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"quantity_received"`
	Unit                  decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"unit"`
	BaseQuantityReceived  decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"base_quantity_received"`
}

type NewGoodsReceipt struct {
	PurchaseOrderId int                     `json:"purchase_order_id" validate:"required"`
	ReceiptNumber   string                  `json:"receipt_number" validate:"max=50"`
	ReceivedDate    time.Time               `json:"received_date" validate:"required"`
	ReceivedBy      string                  `json:"received_by" validate:"max=100"`
	Notes           string                  `json:"notes"`
	Details         []NewGoodsReceiptDetail `json:"details" validate:"required,min=1,dive"`
}

type NewGoodsReceiptDetail struct {
	PurchaseOrderDetailId int             `json:"purchase_order_detail_id" validate:"required"`
	ProductId             int             `json:"product_id" validate:"required"`
	UomId                 int             `json:"uom_id" validate:"required"`
	BaseUomId             int             `json:"base_uom_id" validate:"required"`
	QuantityReceived      decimal.Decimal `json:"quantity_received"`
}

func (g GoodsReceipt) GetBusinessId() string { return g.BusinessId }

// lockReceiptPurchaseOrder locks the order header and all of its lines.
func lockReceiptPurchaseOrder(ctx context.Context, tx *gorm.DB, businessId string, purchaseOrderId int) (*PurchaseOrder, map[int]*PurchaseOrderDetail, error) {
	order, err := utils.FetchModelForUpdate[PurchaseOrder](ctx, tx, businessId, purchaseOrderId)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, nil, utils.NewNotFoundError("purchase order", purchaseOrderId)
		}
		return nil, nil, err
	}
	lines, err := lockPurchaseOrderDetails(tx, purchaseOrderId)
	if err != nil {
		return nil, nil, err
	}
	byId := make(map[int]*PurchaseOrderDetail, len(lines))
	for _, l := range lines {
		byId[l.ID] = l
	}
	return order, byId, nil
}

// buildReceiptDetails validates every line against the locked purchase order and converts it.
// All problems are collected before failing. excludeReceiptId leaves that receipt's stored lines
// out of the cumulative received totals.
func buildReceiptDetails(ctx context.Context, tx *gorm.DB, businessId string, order *PurchaseOrder, poLines map[int]*PurchaseOrderDetail, input []NewGoodsReceiptDetail, excludeReceiptId int) ([]GoodsReceiptDetail, error) {
	errs := utils.FieldErrors{}
	if order.Status == PurchaseOrderStatusCancelled {
		errs.Add("purchaseOrderId", "Purchase order is cancelled")
	}

	var productIds, uomIds, lineIds []int
	for _, d := range input {
		productIds = append(productIds, d.ProductId)
		uomIds = append(uomIds, d.UomId, d.BaseUomId)
		if _, ok := poLines[d.PurchaseOrderDetailId]; ok {
			lineIds = append(lineIds, d.PurchaseOrderDetailId)
		}
	}
	products, err := loadProducts(ctx, tx, businessId, productIds)
	if err != nil {
		return nil, err
	}
	uoms, err := loadUoms(ctx, tx, businessId, uomIds)
	if err != nil {
		return nil, err
	}
	cumulative, err := receivedBaseQuantities(tx, utils.UniqueSlice(lineIds), excludeReceiptId)
	if err != nil {
		return nil, err
	}

	details := make([]GoodsReceiptDetail, 0, len(input))
	for i, d := range input {
		prefix := fmt.Sprintf("details[%d]", i)
		poLine, ok := poLines[d.PurchaseOrderDetailId]
		if !ok {
			errs.Add(prefix+".purchaseOrderDetailId", "Invalid purchaseOrderDetailId")
			continue
		}
		product, ok := products[d.ProductId]
		if !ok {
			errs.Add(prefix+".productId", "Invalid productId")
		} else if product.ID != poLine.ProductId {
			errs.Add(prefix+".productId", "Product does not match purchase order line")
		}
		if !d.QuantityReceived.IsPositive() {
			errs.Add(prefix+".quantityReceived", "Quantity received must be greater than zero")
			continue
		}
		line, ok := uomPairCheck{
			Product:         product,
			Uom:             uoms[d.UomId],
			BaseUom:         uoms[d.BaseUomId],
			RequiredBaseUom: poLine.BaseUomId,
			Quantity:        d.QuantityReceived,
		}.run(errs, prefix)
		if !ok {
			continue
		}

		total := cumulative[poLine.ID].Add(line.BaseQuantity)
		if total.GreaterThan(poLine.BaseQuantity) {
			errs.Add(prefix+".quantityReceived", fmt.Sprintf("Total received quantity (%s) exceeds ordered quantity (%s)",
				total.String(), poLine.BaseQuantity.String()))
			continue
		}
		cumulative[poLine.ID] = total

		details = append(details, GoodsReceiptDetail{
			PurchaseOrderDetailId: poLine.ID,
			ProductId:             d.ProductId,
			UomId:                 d.UomId,
			BaseUomId:             d.BaseUomId,
			QuantityReceived:      d.QuantityReceived,
			Unit:                  line.Unit,
			BaseQuantityReceived:  line.BaseQuantity,
		})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// checkReceiptKeepsInvoicedCovered swaps oldDetails of receipt id for newDetails (nil on delete)
// and makes sure every touched line still has at least its invoiced quantity received.
func checkReceiptKeepsInvoicedCovered(tx *gorm.DB, id int, oldDetails []GoodsReceiptDetail, newDetails []GoodsReceiptDetail) error {
	var lineIds []int
	for _, d := range oldDetails {
		lineIds = append(lineIds, d.PurchaseOrderDetailId)
	}
	for _, d := range newDetails {
		lineIds = append(lineIds, d.PurchaseOrderDetailId)
	}
	lineIds = utils.UniqueSlice(lineIds)
	received, err := receivedBaseQuantities(tx, lineIds, id)
	if err != nil {
		return err
	}
	for _, d := range newDetails {
		received[d.PurchaseOrderDetailId] = received[d.PurchaseOrderDetailId].Add(d.BaseQuantityReceived)
	}
	return checkReceivedCoversInvoiced(tx, lineIds, received)
}

func receiveIntoInventory(tx *gorm.DB, details []GoodsReceiptDetail) error {
	for _, d := range details {
		if err := addProductQuantity(tx, d.ProductId, d.BaseQuantityReceived); err != nil {
			return err
		}
	}
	return nil
}

func reverseFromInventory(tx *gorm.DB, details []GoodsReceiptDetail) error {
	for _, d := range details {
		if err := subtractProductQuantity(tx, d.ProductId, d.BaseQuantityReceived); err != nil {
			return err
		}
	}
	return nil
}

// settleReceiptStatus re-derives the order's fulfilment and stores it on the receipt being written.
func settleReceiptStatus(tx *gorm.DB, receipt *GoodsReceipt) error {
	status, err := refreshPurchaseOrderStatus(tx, receipt.PurchaseOrderId)
	if err != nil {
		return err
	}
	receipt.Status = status
	return tx.Model(&GoodsReceipt{}).Where("id = ?", receipt.ID).Update("status", status).Error
}

func CreateGoodsReceipt(ctx context.Context, input *NewGoodsReceipt) (*GoodsReceipt, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	unlock, err := utils.DocumentLock(ctx, purchaseOrderLockKey(businessId, input.PurchaseOrderId), "GoodsReceipt", "CreateGoodsReceipt")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var receipt GoodsReceipt
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, poLines, err := lockReceiptPurchaseOrder(ctx, tx, businessId, input.PurchaseOrderId)
		if err != nil {
			return err
		}
		details, err := buildReceiptDetails(ctx, tx, businessId, order, poLines, input.Details, 0)
		if err != nil {
			return err
		}
		receiptNumber, sequenceNo, err := assignDocumentNumber(tx, businessId, SeriesPrefixGoodsReceipt,
			&GoodsReceipt{}, "receipt_number", "receiptNumber", input.ReceiptNumber, 0)
		if err != nil {
			return err
		}

		receipt = GoodsReceipt{
			BusinessId:      businessId,
			PurchaseOrderId: input.PurchaseOrderId,
			SequenceNo:      sequenceNo,
			ReceiptNumber:   receiptNumber,
			ReceivedDate:    input.ReceivedDate,
			ReceivedBy:      input.ReceivedBy,
			Notes:           input.Notes,
			Status:          GoodsReceiptStatusPending,
			Details:         details,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}
		if err := receiveIntoInventory(tx, receipt.Details); err != nil {
			return err
		}
		if err := settleReceiptStatus(tx, &receipt); err != nil {
			return err
		}
		return writeAudit(tx, DocumentReferenceTypeGoodsReceipt, receipt.ID, DocumentActionCreate, nil, &receipt,
			fmt.Sprintf("Goods receipt %s created for purchase order %s.", receipt.ReceiptNumber, order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func UpdateGoodsReceipt(ctx context.Context, id int, input *NewGoodsReceipt) (*GoodsReceipt, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	unlock, err := utils.DocumentLock(ctx, purchaseOrderLockKey(businessId, input.PurchaseOrderId), "GoodsReceipt", "UpdateGoodsReceipt")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var receipt *GoodsReceipt
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		oldReceipt, err := lockGoodsReceipt(ctx, tx, businessId, id)
		if err != nil {
			return err
		}
		before := *oldReceipt

		// lock in id order so two updates moving receipts between the same orders cannot deadlock
		orderIds := utils.UniqueSlice([]int{oldReceipt.PurchaseOrderId, input.PurchaseOrderId})
		if len(orderIds) == 2 && orderIds[0] > orderIds[1] {
			orderIds[0], orderIds[1] = orderIds[1], orderIds[0]
		}
		var order *PurchaseOrder
		var poLines map[int]*PurchaseOrderDetail
		for _, orderId := range orderIds {
			o, lines, err := lockReceiptPurchaseOrder(ctx, tx, businessId, orderId)
			if err != nil {
				return err
			}
			if orderId == input.PurchaseOrderId {
				order, poLines = o, lines
			}
		}

		if err := reverseFromInventory(tx, oldReceipt.Details); err != nil {
			return err
		}
		details, err := buildReceiptDetails(ctx, tx, businessId, order, poLines, input.Details, id)
		if err != nil {
			return err
		}
		if err := checkReceiptKeepsInvoicedCovered(tx, id, oldReceipt.Details, details); err != nil {
			return err
		}

		receiptNumber, sequenceNo := oldReceipt.ReceiptNumber, oldReceipt.SequenceNo
		if input.ReceiptNumber != "" && input.ReceiptNumber != oldReceipt.ReceiptNumber {
			receiptNumber, sequenceNo, err = assignDocumentNumber(tx, businessId, SeriesPrefixGoodsReceipt,
				&GoodsReceipt{}, "receipt_number", "receiptNumber", input.ReceiptNumber, id)
			if err != nil {
				return err
			}
		}

		if err := tx.Where("goods_receipt_id = ?", id).Delete(&GoodsReceiptDetail{}).Error; err != nil {
			return err
		}
		for i := range details {
			details[i].GoodsReceiptId = id
		}
		if err := tx.Create(&details).Error; err != nil {
			return err
		}
		if err := tx.Model(&GoodsReceipt{}).Where("id = ?", id).Updates(map[string]interface{}{
			"purchase_order_id": input.PurchaseOrderId,
			"receipt_number":    receiptNumber,
			"sequence_no":       sequenceNo,
			"received_date":     input.ReceivedDate,
			"received_by":       input.ReceivedBy,
			"notes":             input.Notes,
		}).Error; err != nil {
			return err
		}
		if err := receiveIntoInventory(tx, details); err != nil {
			return err
		}

		receipt = oldReceipt
		receipt.PurchaseOrderId = input.PurchaseOrderId
		receipt.ReceiptNumber = receiptNumber
		receipt.SequenceNo = sequenceNo
		receipt.ReceivedDate = input.ReceivedDate
		receipt.ReceivedBy = input.ReceivedBy
		receipt.Notes = input.Notes
		receipt.Details = details
		if err := settleReceiptStatus(tx, receipt); err != nil {
			return err
		}
		if before.PurchaseOrderId != receipt.PurchaseOrderId {
			if _, err := refreshPurchaseOrderStatus(tx, before.PurchaseOrderId); err != nil {
				return err
			}
		}
		return writeAudit(tx, DocumentReferenceTypeGoodsReceipt, id, DocumentActionUpdate, &before, receipt,
			fmt.Sprintf("Goods receipt %s updated.", receipt.ReceiptNumber))
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func DeleteGoodsReceipt(ctx context.Context, id int) (*GoodsReceipt, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}

	var receipt *GoodsReceipt
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err = lockGoodsReceipt(ctx, tx, businessId, id)
		if err != nil {
			return err
		}
		if receipt.Status == GoodsReceiptStatusComplete {
			return utils.NewConflictError("Cannot delete GRN with status %s", GoodsReceiptStatusComplete)
		}
		if _, err := lockPurchaseOrderDetails(tx, receipt.PurchaseOrderId); err != nil {
			return err
		}
		if err := checkReceiptKeepsInvoicedCovered(tx, id, receipt.Details, nil); err != nil {
			return err
		}
		if err := reverseFromInventory(tx, receipt.Details); err != nil {
			return err
		}
		if err := tx.Where("goods_receipt_id = ?", id).Delete(&GoodsReceiptDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&GoodsReceipt{}, id).Error; err != nil {
			return err
		}
		if _, err := refreshPurchaseOrderStatus(tx, receipt.PurchaseOrderId); err != nil {
			return err
		}
		return writeAudit(tx, DocumentReferenceTypeGoodsReceipt, id, DocumentActionDelete, receipt, nil,
			fmt.Sprintf("Goods receipt %s deleted.", receipt.ReceiptNumber))
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func lockGoodsReceipt(ctx context.Context, tx *gorm.DB, businessId string, id int) (*GoodsReceipt, error) {
	receipt, err := utils.FetchModelForUpdate[GoodsReceipt](ctx, tx, businessId, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError("goods receipt", id)
		}
		return nil, err
	}
	if err := tx.Where("goods_receipt_id = ?", id).Order("id").Find(&receipt.Details).Error; err != nil {
		return nil, err
	}
	return receipt, nil
}

func GetGoodsReceipt(ctx context.Context, id int) (*GoodsReceipt, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var receipt GoodsReceipt
	err = config.GetDB().WithContext(ctx).
		Where("business_id = ?", businessId).
		Preload("Details", orderById).
		First(&receipt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("goods receipt", id)
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func ListGoodsReceipts(ctx context.Context, purchaseOrderId *int) ([]*GoodsReceipt, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if purchaseOrderId != nil {
		dbCtx = dbCtx.Where("purchase_order_id = ?", *purchaseOrderId)
	}
	var results []*GoodsReceipt
	err = dbCtx.Preload("Details", orderById).Order("received_date DESC").Order("id DESC").Find(&results).Error
	return results, err
}
