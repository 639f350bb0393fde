package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

const (
	SeriesPrefixPurchaseOrder   = "PO"
	SeriesPrefixGoodsReceipt    = "GRN"
	SeriesPrefixSupplierInvoice = "AP"
	SeriesPrefixSupplierPayment = "PAY"
	SeriesPrefixSupplierCredit  = "CREDIT"

	maxSeriesSkips = 1000
)

// DocumentSeries is the per business counter behind codes like GRN-0007.
type DocumentSeries struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"size:64;not null;uniqueIndex:idx_document_series_business_prefix" json:"business_id"`
	Prefix       string    `gorm:"size:20;not null;uniqueIndex:idx_document_series_business_prefix" json:"prefix"`
	LastSequence int       `gorm:"not null;default:0" json:"last_sequence"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func FormatSeriesCode(prefix string, sequence int) string {
	return fmt.Sprintf("%s-%04d", prefix, sequence)
}

// ParseSeriesCode returns the numeric suffix of a code carrying prefix, or false.
func ParseSeriesCode(prefix string, code string) (int, bool) {
	rest, found := strings.CutPrefix(code, prefix+"-")
	if !found || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// nextDocumentNumber allocates the next code for prefix inside tx. The counter row stays locked
// until tx ends, so concurrent writers for the same business and prefix queue behind each other.
// model and column name the document table the codes live in; it seeds the counter on first
// use and codes already taken there (client supplied ones) are skipped.
func nextDocumentNumber(tx *gorm.DB, businessId string, prefix string, model interface{}, column string) (string, int, error) {
	series, err := lockDocumentSeries(tx, businessId, prefix)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed, err := maxSeriesSuffix(tx, businessId, prefix, model, column)
		if err != nil {
			return "", 0, err
		}
		row := DocumentSeries{BusinessId: businessId, Prefix: prefix, LastSequence: seed}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return "", 0, err
		}
		series, err = lockDocumentSeries(tx, businessId, prefix)
		if err != nil {
			return "", 0, err
		}
	} else if err != nil {
		return "", 0, err
	}

	sequence := series.LastSequence
	var code string
	for i := 0; ; i++ {
		if i >= maxSeriesSkips {
			return "", 0, utils.NewConflictError("could not allocate a free %s number", prefix)
		}
		sequence++
		code = FormatSeriesCode(prefix, sequence)
		var count int64
		if err := tx.Model(model).Where("business_id = ? AND "+column+" = ?", businessId, code).Count(&count).Error; err != nil {
			return "", 0, err
		}
		if count == 0 {
			break
		}
	}

	if err := tx.Model(&DocumentSeries{}).Where("id = ?", series.ID).
		Update("last_sequence", sequence).Error; err != nil {
		return "", 0, err
	}
	return code, sequence, nil
}

func lockDocumentSeries(tx *gorm.DB, businessId string, prefix string) (*DocumentSeries, error) {
	var series DocumentSeries
	// no row yet means first use of the prefix; the caller seeds it
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND prefix = ?", businessId, prefix).
		Limit(1).
		Find(&series)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &series, nil
}

// maxSeriesSuffix scans existing codes for the highest numeric suffix of prefix.
func maxSeriesSuffix(tx *gorm.DB, businessId string, prefix string, model interface{}, column string) (int, error) {
	var codes []string
	if err := tx.Model(model).
		Where("business_id = ? AND "+column+" LIKE ?", businessId, prefix+"-%").
		Pluck(column, &codes).Error; err != nil {
		return 0, err
	}
	highest := 0
	for _, code := range codes {
		if n, ok := ParseSeriesCode(prefix, code); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// assignDocumentNumber accepts a client supplied code when it is unique, else allocates one.
// It returns the code and its numeric sequence (0 for codes outside the series).
func assignDocumentNumber(tx *gorm.DB, businessId string, prefix string, model interface{}, column string, field string, requested string, exceptId int) (string, int, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nextDocumentNumber(tx, businessId, prefix, model, column)
	}
	var count int64
	dbCtx := tx.Model(model).Where("business_id = ? AND "+column+" = ?", businessId, requested)
	if exceptId > 0 {
		dbCtx = dbCtx.Where("id <> ?", exceptId)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return "", 0, err
	}
	if count > 0 {
		return "", 0, utils.NewValidationError(field, fmt.Sprintf("%s %q already exists", field, requested))
	}
	sequence, _ := ParseSeriesCode(prefix, requested)
	return requested, sequence, nil
}
