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

type SupplierPayment struct {
	ID              int                          `gorm:"primary_key" json:"id"`
	BusinessId      string                       `gorm:"size:64;index;not null;uniqueIndex:idx_supplier_payments_number" json:"business_id"`
	SupplierId      int                          `gorm:"index;not null" json:"supplier_id"`
	SequenceNo      int                          `gorm:"not null;default:0" json:"sequence_no"`
	PaymentNumber   string                       `gorm:"size:50;not null;uniqueIndex:idx_supplier_payments_number" json:"payment_number"`
	PaymentDate     time.Time                    `gorm:"not null" json:"payment_date"`
	PaymentMethod   PaymentMethod                `gorm:"size:20" json:"payment_method"`
	ReferenceNumber string                       `gorm:"size:255" json:"reference_number"`
	Notes           string                       `gorm:"type:text" json:"notes"`
	Amount          decimal.Decimal              `gorm:"type:decimal(20,4);not null" json:"amount"`
	AppliedAmount   decimal.Decimal              `gorm:"type:decimal(20,4);not null;default:0" json:"applied_amount"`
	Status          SupplierPaymentStatus        `gorm:"size:20;not null;default:'POSTED'" json:"status"`
	Applications    []SupplierPaymentApplication `gorm:"foreignKey:SupplierPaymentId" json:"applications"`
	CreatedAt       time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

type SupplierPaymentApplication struct {
	ID                int             `gorm:"primary_key" json:"id"`
	SupplierPaymentId int             `gorm:"index;not null" json:"supplier_payment_id"`
	SupplierInvoiceId int             `gorm:"index;not null" json:"supplier_invoice_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSupplierPayment struct {
	SupplierId      int                        `json:"supplier_id" validate:"required"`
	PaymentNumber   string                     `json:"payment_number" validate:"max=50"`
	PaymentDate     time.Time                  `json:"payment_date" validate:"required"`
	PaymentMethod   PaymentMethod              `json:"payment_method"`
	ReferenceNumber string                     `json:"reference_number" validate:"max=255"`
	Notes           string                     `json:"notes"`
	Amount          decimal.Decimal            `json:"amount"`
	Status          *SupplierPaymentStatus     `json:"status"`
	Applications    []NewSettlementApplication `json:"applications" validate:"omitempty,dive"`
}

func (p SupplierPayment) GetBusinessId() string { return p.BusinessId }

func CreateSupplierPayment(ctx context.Context, input *NewSupplierPayment) (*SupplierPayment, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := precheckApplications(paymentSettlement, input.Amount, input.Applications); err != nil {
		return nil, err
	}
	status := utils.DereferencePtr(input.Status, SupplierPaymentStatusPosted)

	unlock, err := utils.DocumentLock(ctx, supplierLockKey(businessId, input.SupplierId), "SupplierPayment", "CreateSupplierPayment")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *SupplierPayment
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := settlementSupplierExists(ctx, tx, businessId, input.SupplierId); err != nil {
			return err
		}
		invoiceIds, err := checkApplications(tx, paymentSettlement, businessId, input.SupplierId, input.Applications)
		if err != nil {
			return err
		}
		paymentNumber, sequenceNo, err := assignDocumentNumber(tx, businessId, SeriesPrefixSupplierPayment,
			&SupplierPayment{}, "payment_number", "paymentNumber", input.PaymentNumber, 0)
		if err != nil {
			return err
		}

		payment := SupplierPayment{
			BusinessId:      businessId,
			SupplierId:      input.SupplierId,
			SequenceNo:      sequenceNo,
			PaymentNumber:   paymentNumber,
			PaymentDate:     input.PaymentDate,
			PaymentMethod:   input.PaymentMethod,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
			Amount:          input.Amount,
			Status:          status,
		}
		for _, a := range input.Applications {
			payment.Applications = append(payment.Applications, SupplierPaymentApplication{
				SupplierInvoiceId: a.SupplierInvoiceId,
				Amount:            a.Amount,
			})
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if err := recomputeInvoiceBalances(tx, invoiceIds); err != nil {
			return err
		}
		if payment.AppliedAmount, err = recomputePaymentBalance(tx, payment.ID); err != nil {
			return err
		}
		result = &payment
		return writeAudit(tx, DocumentReferenceTypeSupplierPayment, payment.ID, DocumentActionCreate, nil, &payment,
			fmt.Sprintf("Supplier payment %s created for %v.", payment.PaymentNumber, payment.Amount))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSupplierPayment removes a payment and its applications. A posted payment must have its
// applications removed first.
func DeleteSupplierPayment(ctx context.Context, id int) (*SupplierPayment, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var result *SupplierPayment
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := lockSupplierPayment(ctx, tx, businessId, id)
		if err != nil {
			return err
		}
		if payment.Status == SupplierPaymentStatusPosted && len(payment.Applications) > 0 {
			return utils.NewConflictError("payment %s is posted and has %d application(s); remove them first",
				payment.PaymentNumber, len(payment.Applications))
		}
		invoiceIds := make([]int, 0, len(payment.Applications))
		for _, a := range payment.Applications {
			invoiceIds = append(invoiceIds, a.SupplierInvoiceId)
		}
		if _, err := lockInvoices(tx, businessId, invoiceIds); err != nil {
			return err
		}
		if err := tx.Where("supplier_payment_id = ?", id).Delete(&SupplierPaymentApplication{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&SupplierPayment{}, id).Error; err != nil {
			return err
		}
		if err := recomputeInvoiceBalances(tx, invoiceIds); err != nil {
			return err
		}
		result = payment
		return writeAudit(tx, DocumentReferenceTypeSupplierPayment, id, DocumentActionDelete, payment, nil,
			fmt.Sprintf("Supplier payment %s deleted.", payment.PaymentNumber))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSupplierPaymentApplication detaches one application and recomputes both sides.
func DeleteSupplierPaymentApplication(ctx context.Context, paymentId int, applicationId int) (*SupplierPayment, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var result *SupplierPayment
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := lockSupplierPayment(ctx, tx, businessId, paymentId)
		if err != nil {
			return err
		}
		before := *payment
		var application *SupplierPaymentApplication
		for i := range payment.Applications {
			if payment.Applications[i].ID == applicationId {
				application = &payment.Applications[i]
			}
		}
		if application == nil {
			return utils.NewNotFoundError("payment application", applicationId)
		}
		if _, err := lockInvoices(tx, businessId, []int{application.SupplierInvoiceId}); err != nil {
			return err
		}
		if err := tx.Delete(&SupplierPaymentApplication{}, applicationId).Error; err != nil {
			return err
		}
		if _, err := RecomputeInvoiceBalance(tx, application.SupplierInvoiceId); err != nil {
			return err
		}
		if _, err := recomputePaymentBalance(tx, paymentId); err != nil {
			return err
		}
		result, err = loadSupplierPayment(tx, businessId, paymentId)
		if err != nil {
			return err
		}
		return writeAudit(tx, DocumentReferenceTypeSupplierPayment, paymentId, DocumentActionUpdate, &before, result,
			fmt.Sprintf("Supplier payment %s application to invoice %d removed.", payment.PaymentNumber, application.SupplierInvoiceId))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetSupplierPayment(ctx context.Context, id int) (*SupplierPayment, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	return loadSupplierPayment(config.GetDB().WithContext(ctx), businessId, id)
}

func ListSupplierPayments(ctx context.Context, supplierId *int) ([]*SupplierPayment, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if supplierId != nil {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	var results []*SupplierPayment
	err = dbCtx.Preload("Applications", orderById).Order("payment_date DESC").Order("id DESC").Find(&results).Error
	return results, err
}

func lockSupplierPayment(ctx context.Context, tx *gorm.DB, businessId string, id int) (*SupplierPayment, error) {
	payment, err := utils.FetchModelForUpdate[SupplierPayment](ctx, tx, businessId, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError("supplier payment", id)
		}
		return nil, err
	}
	if err := tx.Where("supplier_payment_id = ?", id).Order("id").Find(&payment.Applications).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func loadSupplierPayment(db *gorm.DB, businessId string, id int) (*SupplierPayment, error) {
	var payment SupplierPayment
	err := db.Where("business_id = ?", businessId).Preload("Applications", orderById).First(&payment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("supplier payment", id)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
