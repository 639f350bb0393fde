package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type UnitCategory struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:64;index;not null" json:"business_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Uoms       []Uom     `json:"uoms,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUnitCategory struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Uom is a unit of measure. ConversionRate is how many base-unit quantities one unit represents.
//
// BaseUnitCategoryId mirrors UnitCategoryId only while BaseUnit is true; its unique index keeps
// a single base unit per category at the storage layer on every supported database.
type Uom struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	BusinessId         string          `gorm:"size:64;index;not null" json:"business_id"`
	UnitCategoryId     int             `gorm:"index;not null" json:"unit_category_id"`
	Name               string          `gorm:"size:100;not null" json:"name"`
	Abbreviation       string          `gorm:"size:20" json:"abbreviation"`
	ConversionRate     decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"conversion_rate"`
	BaseUnit           bool            `gorm:"not null;default:false" json:"base_unit"`
	BaseUnitCategoryId *int            `gorm:"uniqueIndex" json:"-"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUom struct {
	UnitCategoryId int             `json:"unit_category_id" validate:"required"`
	Name           string          `json:"name" validate:"required,max=100"`
	Abbreviation   string          `json:"abbreviation" validate:"max=20"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	BaseUnit       bool            `json:"base_unit"`
}

func (c UnitCategory) GetBusinessId() string { return c.BusinessId }
func (u Uom) GetBusinessId() string          { return u.BusinessId }

func (input *NewUom) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.ConversionRate.IsPositive() {
		return utils.NewValidationError("conversionRate", ErrConversionRateNotPositive.Error())
	}
	return nil
}

func CreateUnitCategory(ctx context.Context, input *NewUnitCategory) (*UnitCategory, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[UnitCategory](ctx, nil, businessId, "name", strings.TrimSpace(input.Name), 0); err != nil {
		return nil, utils.NewValidationError("name", "Unit category name already exists")
	}
	category := UnitCategory{BusinessId: businessId, Name: strings.TrimSpace(input.Name)}
	if err := config.GetDB().WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func GetUnitCategory(ctx context.Context, id int) (*UnitCategory, error) {
	return GetResource[UnitCategory](ctx, id)
}

func ListUnitCategories(ctx context.Context) ([]*UnitCategory, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var results []*UnitCategory
	err = config.GetDB().WithContext(ctx).
		Where("business_id = ?", businessId).
		Preload("Uoms", func(db *gorm.DB) *gorm.DB { return db.Order("conversion_rate") }).
		Order("name").
		Find(&results).Error
	return results, err
}

// CreateUom stores a unit. When BaseUnit is set the previous base unit of the category is
// demoted in the same transaction.
func CreateUom(ctx context.Context, input *NewUom) (*Uom, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	uom := Uom{
		BusinessId:     businessId,
		UnitCategoryId: input.UnitCategoryId,
		Name:           strings.TrimSpace(input.Name),
		Abbreviation:   input.Abbreviation,
		ConversionRate: input.ConversionRate,
	}

	var demoted []int
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := utils.ValidateResourceId[UnitCategory](ctx, tx, businessId, input.UnitCategoryId); err != nil {
			return utils.NewNotFoundError("unit category", input.UnitCategoryId)
		}
		if err := tx.Create(&uom).Error; err != nil {
			return err
		}
		if input.BaseUnit {
			if demoted, err = setBaseUnit(tx, &uom); err != nil {
				return err
			}
		}
		return createHistory(tx, "CREATE", uom.ID, string(DocumentReferenceTypeUom), nil, &uom, "Created unit "+uom.Name)
	})
	if err != nil {
		return nil, err
	}
	removeCachedUoms(ctx, "CreateUom", demoted)
	return &uom, nil
}

func UpdateUom(ctx context.Context, id int, input *NewUom) (*Uom, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	var result *Uom
	var demoted []int
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		oldUom, err := utils.FetchModelForUpdate[Uom](ctx, tx, businessId, id)
		if err != nil {
			return utils.NewNotFoundError("uom", id)
		}
		if oldUom.UnitCategoryId != input.UnitCategoryId {
			return utils.NewValidationError("unitCategoryId", "unit category of a unit cannot be changed")
		}
		before := *oldUom
		if err := tx.Model(oldUom).Updates(map[string]interface{}{
			"name":            strings.TrimSpace(input.Name),
			"abbreviation":    input.Abbreviation,
			"conversion_rate": input.ConversionRate,
		}).Error; err != nil {
			return err
		}
		switch {
		case input.BaseUnit && !oldUom.BaseUnit:
			if demoted, err = setBaseUnit(tx, oldUom); err != nil {
				return err
			}
		case !input.BaseUnit && oldUom.BaseUnit:
			if err := tx.Model(&Uom{}).Where("id = ?", oldUom.ID).
				Updates(map[string]interface{}{"base_unit": false, "base_unit_category_id": nil}).Error; err != nil {
				return err
			}
		}
		result, err = utils.FetchModelTx[Uom](ctx, tx, businessId, id)
		if err != nil {
			return err
		}
		return createHistory(tx, "UPDATE", id, string(DocumentReferenceTypeUom), &before, result, "Updated unit "+result.Name)
	})
	if err != nil {
		return nil, err
	}
	removeCachedUoms(ctx, "UpdateUom", append(demoted, id))
	return result, nil
}

// setBaseUnit demotes the category's current base unit and promotes uom, returning the ids it
// demoted. The unique index on base_unit_category_id rejects a concurrent promotion that slips
// between the two statements.
func setBaseUnit(tx *gorm.DB, uom *Uom) ([]int, error) {
	var demoted []int
	if err := tx.Model(&Uom{}).
		Where("unit_category_id = ? AND base_unit = ? AND id <> ?", uom.UnitCategoryId, true, uom.ID).
		Pluck("id", &demoted).Error; err != nil {
		return nil, err
	}
	if len(demoted) > 0 {
		if err := tx.Model(&Uom{}).Where("id IN ?", demoted).
			Updates(map[string]interface{}{"base_unit": false, "base_unit_category_id": nil}).Error; err != nil {
			return nil, err
		}
	}
	categoryId := uom.UnitCategoryId
	if err := tx.Model(&Uom{}).Where("id = ?", uom.ID).
		Updates(map[string]interface{}{"base_unit": true, "base_unit_category_id": categoryId}).Error; err != nil {
		return nil, err
	}
	uom.BaseUnit = true
	uom.BaseUnitCategoryId = &categoryId
	return demoted, nil
}

func removeCachedUoms(ctx context.Context, fn string, ids []int) {
	for _, id := range ids {
		if err := utils.RemoveRedisItem[Uom](ctx, id); err != nil {
			config.LogError(config.GetLogger(), "UnitOfMeasure", fn, "RemoveRedisItem", id, err)
		}
	}
}

func GetUom(ctx context.Context, id int) (*Uom, error) {
	return GetResource[Uom](ctx, id)
}

func ListUoms(ctx context.Context, unitCategoryId *int) ([]*Uom, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	dbCtx := config.GetDB().WithContext(ctx).Where("business_id = ?", businessId)
	if unitCategoryId != nil {
		dbCtx = dbCtx.Where("unit_category_id = ?", *unitCategoryId)
	}
	var results []*Uom
	err = dbCtx.Order("unit_category_id").Order("conversion_rate").Find(&results).Error
	return results, err
}

// GetCategoryBaseUom returns the base unit of a category.
func GetCategoryBaseUom(ctx context.Context, tx *gorm.DB, unitCategoryId int) (*Uom, error) {
	var uom Uom
	err := tx.WithContext(ctx).Where("unit_category_id = ? AND base_unit = ?", unitCategoryId, true).Take(&uom).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &uom, nil
}

func loadUoms(ctx context.Context, tx *gorm.DB, businessId string, ids []int) (map[int]*Uom, error) {
	return utils.FetchModelsByIds(ctx, tx, businessId, ids, func(u *Uom) int { return u.ID })
}
