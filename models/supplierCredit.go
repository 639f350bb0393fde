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

type SupplierCredit struct {
	ID                int                         `gorm:"primary_key" json:"id"`
	BusinessId        string                      `gorm:"size:64;index;not null;uniqueIndex:idx_supplier_credits_number" json:"business_id"`
	SupplierId        int                         `gorm:"index;not null" json:"supplier_id"`
	PurchaseOrderId   *int                        `gorm:"index" json:"purchase_order_id"`
	SequenceNo        int                         `gorm:"not null;default:0" json:"sequence_no"`
	CreditNumber      string                      `gorm:"size:50;not null;uniqueIndex:idx_supplier_credits_number" json:"credit_number"`
	CreditDate        time.Time                   `gorm:"not null" json:"credit_date"`
	Reason            string                      `gorm:"type:text" json:"reason"`
	TotalAmount       decimal.Decimal             `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	AppliedAmount     decimal.Decimal             `gorm:"type:decimal(20,4);not null;default:0" json:"applied_amount"`
	OutstandingAmount decimal.Decimal             `gorm:"type:decimal(20,4);not null;default:0" json:"outstanding_amount"`
	Status            SupplierCreditStatus        `gorm:"size:20;not null;default:'POSTED'" json:"status"`
	Applications      []SupplierCreditApplication `gorm:"foreignKey:SupplierCreditId" json:"applications"`
	CreatedAt         time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

type SupplierCreditApplication struct {
	ID                int             `gorm:"primary_key" json:"id"`
	SupplierCreditId  int             `gorm:"index;not null" json:"supplier_credit_id"`
	SupplierInvoiceId int             `gorm:"index;not null" json:"supplier_invoice_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSupplierCredit struct {
	SupplierId      int                        `json:"supplier_id" validate:"required"`
	PurchaseOrderId *int                       `json:"purchase_order_id"`
	CreditNumber    string                     `json:"credit_number" validate:"max=50"`
	CreditDate      time.Time                  `json:"credit_date" validate:"required"`
	Reason          string                     `json:"reason"`
	TotalAmount     decimal.Decimal            `json:"total_amount"`
	Status          *SupplierCreditStatus      `json:"status"`
	Applications    []NewSettlementApplication `json:"applications" validate:"omitempty,dive"`
}

func (c SupplierCredit) GetBusinessId() string { return c.BusinessId }

func requestedCreditStatus(s *SupplierCreditStatus) (SupplierCreditStatus, error) {
	if s == nil {
		return SupplierCreditStatusPosted, nil
	}
	switch *s {
	case SupplierCreditStatusDraft, SupplierCreditStatusPosted:
		return *s, nil
	}
	return "", utils.NewValidationError("status", fmt.Sprintf("status %q is derived from applications and cannot be set", *s))
}

func CreateSupplierCredit(ctx context.Context, input *NewSupplierCredit) (*SupplierCredit, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	status, err := requestedCreditStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if err := precheckApplications(creditSettlement, input.TotalAmount, input.Applications); err != nil {
		return nil, err
	}

	unlock, err := utils.DocumentLock(ctx, supplierLockKey(businessId, input.SupplierId), "SupplierCredit", "CreateSupplierCredit")
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *SupplierCredit
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := settlementSupplierExists(ctx, tx, businessId, input.SupplierId); err != nil {
			return err
		}
		if input.PurchaseOrderId != nil {
			order, err := utils.FetchModelTx[PurchaseOrder](ctx, tx, businessId, *input.PurchaseOrderId)
			if err != nil {
				if utils.IsNotFound(err) {
					return utils.NewNotFoundError("purchase order", *input.PurchaseOrderId)
				}
				return err
			}
			if order.SupplierId != input.SupplierId {
				return utils.NewValidationError("purchaseOrderId", "Purchase order belongs to a different supplier")
			}
		}
		invoiceIds, err := checkApplications(tx, creditSettlement, businessId, input.SupplierId, input.Applications)
		if err != nil {
			return err
		}
		creditNumber, sequenceNo, err := assignDocumentNumber(tx, businessId, SeriesPrefixSupplierCredit,
			&SupplierCredit{}, "credit_number", "creditNumber", input.CreditNumber, 0)
		if err != nil {
			return err
		}

		credit := SupplierCredit{
			BusinessId:        businessId,
			SupplierId:        input.SupplierId,
			PurchaseOrderId:   input.PurchaseOrderId,
			SequenceNo:        sequenceNo,
			CreditNumber:      creditNumber,
			CreditDate:        input.CreditDate,
			Reason:            input.Reason,
			TotalAmount:       input.TotalAmount,
			OutstandingAmount: input.TotalAmount,
			Status:            status,
		}
		for _, a := range input.Applications {
			credit.Applications = append(credit.Applications, SupplierCreditApplication{
				SupplierInvoiceId: a.SupplierInvoiceId,
				Amount:            a.Amount,
			})
		}
		if err := tx.Create(&credit).Error; err != nil {
			return err
		}
		if err := recomputeInvoiceBalances(tx, invoiceIds); err != nil {
			return err
		}
		recomputed, err := recomputeCreditBalance(tx, credit.ID)
		if err != nil {
			return err
		}
		recomputed.Applications = credit.Applications
		result = recomputed
		return writeAudit(tx, DocumentReferenceTypeSupplierCredit, credit.ID, DocumentActionCreate, nil, result,
			fmt.Sprintf("Supplier credit %s created for %v.", credit.CreditNumber, credit.TotalAmount))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSupplierCredit removes a credit and its applications. A credit that is not a draft
// must have its applications removed first.
func DeleteSupplierCredit(ctx context.Context, id int) (*SupplierCredit, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var result *SupplierCredit
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		credit, err := lockSupplierCredit(ctx, tx, businessId, id)
		if err != nil {
			return err
		}
		if credit.Status != SupplierCreditStatusDraft && len(credit.Applications) > 0 {
			return utils.NewConflictError("credit %s is posted and has %d application(s); remove them first",
				credit.CreditNumber, len(credit.Applications))
		}
		invoiceIds := make([]int, 0, len(credit.Applications))
		for _, a := range credit.Applications {
			invoiceIds = append(invoiceIds, a.SupplierInvoiceId)
		}
		if _, err := lockInvoices(tx, businessId, invoiceIds); err != nil {
			return err
		}
		if err := tx.Where("supplier_credit_id = ?", id).Delete(&SupplierCreditApplication{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&SupplierCredit{}, id).Error; err != nil {
			return err
		}
		if err := recomputeInvoiceBalances(tx, invoiceIds); err != nil {
			return err
		}
		result = credit
		return writeAudit(tx, DocumentReferenceTypeSupplierCredit, id, DocumentActionDelete, credit, nil,
			fmt.Sprintf("Supplier credit %s deleted.", credit.CreditNumber))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func DeleteSupplierCreditApplication(ctx context.Context, creditId int, applicationId int) (*SupplierCredit, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var result *SupplierCredit
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		credit, err := lockSupplierCredit(ctx, tx, businessId, creditId)
		if err != nil {
			return err
		}
		before := *credit
		var application *SupplierCreditApplication
		for i := range credit.Applications {
			if credit.Applications[i].ID == applicationId {
				application = &credit.Applications[i]
			}
		}
		if application == nil {
			return utils.NewNotFoundError("credit application", applicationId)
		}
		if _, err := lockInvoices(tx, businessId, []int{application.SupplierInvoiceId}); err != nil {
			return err
		}
		if err := tx.Delete(&SupplierCreditApplication{}, applicationId).Error; err != nil {
			return err
		}
		if _, err := RecomputeInvoiceBalance(tx, application.SupplierInvoiceId); err != nil {
			return err
		}
		if _, err := recomputeCreditBalance(tx, creditId); err != nil {
			return err
		}
		result, err = loadSupplierCredit(tx, businessId, creditId)
		if err != nil {
			return err
		}
		return writeAudit(tx, DocumentReferenceTypeSupplierCredit, creditId, DocumentActionUpdate, &before, result,
			fmt.Sprintf("Supplier credit %s application to invoice %d removed.", credit.CreditNumber, application.SupplierInvoiceId))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetSupplierCredit(ctx context.Context, id int) (*SupplierCredit, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	return loadSupplierCredit(config.GetDB().WithContext(ctx), businessId, id)
}

func ListSupplierCredits(ctx context.Context, supplierId *int) ([]*SupplierCredit, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if supplierId != nil {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	var results []*SupplierCredit
	err = dbCtx.Preload("Applications", orderById).Order("credit_date DESC").Order("id DESC").Find(&results).Error
	return results, err
}

func lockSupplierCredit(ctx context.Context, tx *gorm.DB, businessId string, id int) (*SupplierCredit, error) {
	credit, err := utils.FetchModelForUpdate[SupplierCredit](ctx, tx, businessId, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewNotFoundError("supplier credit", id)
		}
		return nil, err
	}
	if err := tx.Where("supplier_credit_id = ?", id).Order("id").Find(&credit.Applications).Error; err != nil {
		return nil, err
	}
	return credit, nil
}

func loadSupplierCredit(db *gorm.DB, businessId string, id int) (*SupplierCredit, error) {
	var credit SupplierCredit
	err := db.Where("business_id = ?", businessId).Preload("Applications", orderById).First(&credit, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("supplier credit", id)
	}
	if err != nil {
		return nil, err
	}
	return &credit, nil
}
