package models

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

// Product is master data read by the ledgers. Quantity is the on-hand stock in base units and is
// only changed by goods receipts.
type Product struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"size:64;index;not null" json:"business_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Sku            string          `gorm:"size:100" json:"sku"`
	UnitCategoryId int             `gorm:"index;not null" json:"unit_category_id"`
	PurchasePrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	Quantity       decimal.Decimal `gorm:"type:decimal(24,10);not null;default:0" json:"quantity"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Sku            string          `json:"sku" validate:"max=100"`
	UnitCategoryId int             `json:"unit_category_id" validate:"required"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
}

func (p Product) GetBusinessId() string { return p.BusinessId }

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[UnitCategory](ctx, nil, businessId, input.UnitCategoryId); err != nil {
		return nil, utils.NewValidationError("unitCategoryId", "Invalid unitCategoryId")
	}
	if input.Sku != "" {
		if err := utils.ValidateUnique[Product](ctx, nil, businessId, "sku", input.Sku, 0); err != nil {
			return nil, utils.NewValidationError("sku", "SKU already exists")
		}
	}
	active := true
	product := Product{
		BusinessId:     businessId,
		Name:           strings.TrimSpace(input.Name),
		Sku:            input.Sku,
		UnitCategoryId: input.UnitCategoryId,
		PurchasePrice:  input.PurchasePrice,
		Quantity:       decimal.Zero,
		IsActive:       &active,
	}
	if err := config.GetDB().WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProduct always reads the database; Quantity changes too often to cache.
func GetProduct(ctx context.Context, id int) (*Product, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Product](ctx, businessId, id)
}

func ListProducts(ctx context.Context) ([]*Product, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var results []*Product
	err = config.GetDB().WithContext(ctx).Where("business_id = ?", businessId).Order("name").Find(&results).Error
	return results, err
}

func loadProducts(ctx context.Context, tx *gorm.DB, businessId string, ids []int) (map[int]*Product, error) {
	return utils.FetchModelsByIds(ctx, tx, businessId, ids, func(p *Product) int { return p.ID })
}

// addProductQuantity increments on-hand stock.
func addProductQuantity(tx *gorm.DB, productId int, qty decimal.Decimal) error {
	if qty.IsZero() {
		return nil
	}
	return tx.Model(&Product{}).Where("id = ?", productId).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
}

// subtractProductQuantity decrements on-hand stock, floored at zero.
func subtractProductQuantity(tx *gorm.DB, productId int, qty decimal.Decimal) error {
	if qty.IsZero() {
		return nil
	}
	return tx.Model(&Product{}).Where("id = ?", productId).
		UpdateColumn("quantity", gorm.Expr("CASE WHEN quantity - ? < 0 THEN 0 ELSE quantity - ? END", qty, qty)).Error
}
