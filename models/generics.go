package models

import (
	"context"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

type Resource interface {
	GetBusinessId() string
}

// first find in redis, then in db, using ctx's business_id in WHERE, cache result
// (may return RecordNotFound error)
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](ctx, id)
	if err != nil {
		config.LoggerWithContext(ctx).WithError(err).Warn("GetResource: redis read failed")
		result = nil
	}
	// if not found in redis
	if result == nil {
		result, err = utils.FetchModel[T](ctx, businessId, id, associations...)
		if err != nil {
			return nil, err
		}
		// associations are not cached, the cached copy must be comparable across callers
		if len(associations) == 0 {
			if err := utils.StoreRedis[T](ctx, result, id); err != nil {
				config.LoggerWithContext(ctx).WithError(err).Warn("GetResource: redis write failed")
			}
		}
	} else if (*result).GetBusinessId() != businessId {
		return nil, utils.ErrorRecordNotFound
	}

	return result, nil
}
