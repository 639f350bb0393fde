package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type Supplier struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"size:64;index;not null" json:"business_id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone"`
	PaymentTerms *int      `json:"payment_terms"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	CountryCode  string `json:"country_code"`
	PaymentTerms *int   `json:"payment_terms" validate:"omitempty,min=0"`
}

func (s Supplier) GetBusinessId() string { return s.BusinessId }

func (input *NewSupplier) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	errs := utils.FieldErrors{}
	if err := utils.ValidateUnique[Supplier](ctx, nil, businessId, "name", strings.TrimSpace(input.Name), id); err != nil {
		errs.Add("name", "Supplier name already exists")
	}
	if input.Phone != "" {
		countryCode := input.CountryCode
		if countryCode == "" {
			countryCode = "MM"
		}
		phone, err := utils.FormatPhoneNumber(input.Phone, countryCode)
		if err != nil {
			errs.Add("phone", "Invalid phone number")
		} else {
			input.Phone = phone
		}
	}
	return errs.Err()
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}
	active := true
	supplier := Supplier{
		BusinessId:   businessId,
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		Phone:        input.Phone,
		PaymentTerms: input.PaymentTerms,
		IsActive:     &active,
	}
	if err := config.GetDB().WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return GetResource[Supplier](ctx, id)
}

func ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var results []*Supplier
	err = config.GetDB().WithContext(ctx).Where("business_id = ?", businessId).Order("name").Find(&results).Error
	return results, err
}
