package utils

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
)

/* DB fetching */

func dbOrGlobal(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return config.GetDB()
}

// fetch model from db
// (ctx's business_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, businessId string, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](ctx, nil, businessId, id, associations...)
}

// FetchModelTx reads through tx when it is not nil.
func FetchModelTx[T any](ctx context.Context, tx *gorm.DB, businessId string, id int, associations ...string) (*T, error) {
	dbCtx := dbOrGlobal(tx).WithContext(ctx).Where("business_id = ?", businessId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FetchModelForUpdate reads the row under SELECT ... FOR UPDATE inside tx.
func FetchModelForUpdate[T any](ctx context.Context, tx *gorm.DB, businessId string, id int) (*T, error) {
	var result T
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ?", businessId).
		First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// FetchModelsByIds loads rows by primary key into a map. Missing ids are simply absent.
func FetchModelsByIds[T any](ctx context.Context, tx *gorm.DB, businessId string, ids []int, idOf func(*T) int) (map[int]*T, error) {
	result := make(map[int]*T)
	ids = UniqueSlice(ids)
	if len(ids) == 0 {
		return result, nil
	}
	var rows []*T
	if err := dbOrGlobal(tx).WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[idOf(r)] = r
	}
	return result, nil
}
