package workflow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

// RunReconciliationChecks runs the drift checks for one business and logs the outcome.
func RunReconciliationChecks(ctx context.Context, logger *logrus.Logger, businessId string) ([]*models.ReconciliationReport, error) {
	ctx = utils.SystemContext(ctx, businessId)
	cid, found, err := models.RunReconciliationChecks(ctx)
	if err != nil {
		return nil, err
	}
	if logger != nil && len(found) > 0 {
		logger.WithFields(logrus.Fields{
			"field":          "ReconciliationChecks",
			"business_id":    businessId,
			"correlation_id": cid,
			"mismatches":     len(found),
		}).Warn("reconciliation mismatches found")
	}
	return found, nil
}

// ScheduleReconciliationChecks runs the checks for every business on each tick until ctx ends.
func ScheduleReconciliationChecks(ctx context.Context, logger *logrus.Logger, interval time.Duration, businessIds func(context.Context) ([]string, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		ids, err := businessIds(ctx)
		if err != nil {
			logger.WithError(err).Error("reconciliation: list businesses")
			continue
		}
		for _, id := range ids {
			if _, err := RunReconciliationChecks(ctx, logger, id); err != nil {
				logger.WithFields(logrus.Fields{
					"field":       "ReconciliationChecks",
					"business_id": id,
				}).WithError(err).Error("reconciliation checks failed")
			}
		}
	}
}
