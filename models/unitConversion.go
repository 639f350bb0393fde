package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrConversionRateNotPositive = errors.New("conversion rate must be greater than zero")
	ErrUomCategoryMismatch       = errors.New("units of measure belong to different unit categories")
)

// ComputeUnit returns selected.ConversionRate / base.ConversionRate, the factor that turns a
// quantity entered in selected into base-unit quantity.
func ComputeUnit(selected *Uom, base *Uom) (decimal.Decimal, error) {
	if selected == nil || base == nil {
		return decimal.Zero, errors.New("uom is required")
	}
	if selected.UnitCategoryId != base.UnitCategoryId {
		return decimal.Zero, ErrUomCategoryMismatch
	}
	if !selected.ConversionRate.IsPositive() || !base.ConversionRate.IsPositive() {
		return decimal.Zero, ErrConversionRateNotPositive
	}
	return selected.ConversionRate.DivRound(base.ConversionRate, UnitPrecision), nil
}

// ToBaseQuantity is quantity × unit.
func ToBaseQuantity(quantity decimal.Decimal, unit decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unit).Round(UnitPrecision)
}

// FromBaseQuantity reverses ToBaseQuantity using the unit recorded on a line.
func FromBaseQuantity(baseQuantity decimal.Decimal, unit decimal.Decimal) decimal.Decimal {
	if unit.IsZero() {
		return decimal.Zero
	}
	return baseQuantity.DivRound(unit, UnitPrecision)
}

// ConvertQuantity converts between two units of the same category: quantity × (rateFrom / rateTo).
func ConvertQuantity(quantity decimal.Decimal, from *Uom, to *Uom) (decimal.Decimal, error) {
	if from == nil || to == nil {
		return decimal.Zero, errors.New("uom is required")
	}
	if from.UnitCategoryId != to.UnitCategoryId {
		return decimal.Zero, ErrUomCategoryMismatch
	}
	if !from.ConversionRate.IsPositive() || !to.ConversionRate.IsPositive() {
		return decimal.Zero, ErrConversionRateNotPositive
	}
	return quantity.Mul(from.ConversionRate).DivRound(to.ConversionRate, UnitPrecision), nil
}

type convertedLine struct {
	Unit         decimal.Decimal
	BaseQuantity decimal.Decimal
}

// uomPairCheck validates the UOM bindings of one document line and, when valid, converts it.
// Problems are written into errs under prefix (e.g. `details[2]`).
type uomPairCheck struct {
	Product         *Product
	Uom             *Uom
	BaseUom         *Uom
	RequiredBaseUom int // purchase line's base UOM for receipts and invoices; 0 = no constraint
	Quantity        decimal.Decimal
}

func (c uomPairCheck) run(errs map[string]string, prefix string) (convertedLine, bool) {
	ok := true
	add := func(field, msg string) {
		ok = false
		if _, exists := errs[prefix+"."+field]; !exists {
			errs[prefix+"."+field] = msg
		}
	}

	if c.Uom == nil {
		add("uomId", "Invalid uomId")
	} else if c.Product != nil && c.Uom.UnitCategoryId != c.Product.UnitCategoryId {
		add("uomId", "UOM not in product unit category")
	}

	if c.BaseUom == nil {
		add("baseUomId", "Invalid baseUomId")
	} else {
		switch {
		case c.Product != nil && c.BaseUom.UnitCategoryId != c.Product.UnitCategoryId:
			add("baseUomId", "Base UOM not in product unit category")
		case !c.BaseUom.BaseUnit:
			add("baseUomId", "Base UOM must be the category base unit")
		case c.RequiredBaseUom != 0 && c.BaseUom.ID != c.RequiredBaseUom:
			add("baseUomId", "Base UOM must match purchase item base UOM")
		}
	}
	if c.Uom != nil && c.BaseUom != nil && c.Uom.UnitCategoryId != c.BaseUom.UnitCategoryId {
		add("uomId", "UOMs must be in same unit category")
	}
	if !ok {
		return convertedLine{}, false
	}

	unit, err := ComputeUnit(c.Uom, c.BaseUom)
	if err != nil {
		add("uomId", err.Error())
		return convertedLine{}, false
	}
	return convertedLine{Unit: unit, BaseQuantity: ToBaseQuantity(c.Quantity, unit)}, true
}
