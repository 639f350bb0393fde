package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
)

func setupDispatcherDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "outbox.db"))
	config.ConnectDatabaseWithRetry()
	t.Cleanup(func() { _ = config.CloseDatabase() })
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return config.GetDB()
}

func insertEvent(t *testing.T, db *gorm.DB, referenceId int) models.DocumentEventRecord {
	t.Helper()
	rec := models.DocumentEventRecord{
		BusinessId:          "biz-outbox",
		TransactionDateTime: time.Now().UTC(),
		ReferenceId:         referenceId,
		ReferenceType:       models.DocumentReferenceTypePurchaseOrder,
		Action:              models.DocumentActionCreate,
		Payload:             []byte(`{}`),
		PublishStatus:       models.OutboxPublishStatusPending,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return rec
}

func loadEvent(t *testing.T, db *gorm.DB, id int) models.DocumentEventRecord {
	t.Helper()
	var rec models.DocumentEventRecord
	if err := db.First(&rec, id).Error; err != nil {
		t.Fatalf("load event %d: %v", id, err)
	}
	return rec
}

func newTestDispatcher(db *gorm.DB, publish PublishFunc) *OutboxDispatcher {
	logger, _ := test.NewNullLogger()
	d := NewOutboxDispatcher(db, logger)
	d.Publish = publish
	d.InitialBackoff = time.Minute
	d.MaxAttempts = 2
	return d
}

func TestDispatchOnceMarksSent(t *testing.T) {
	db := setupDispatcherDB(t)
	first := insertEvent(t, db, 1)
	second := insertEvent(t, db, 2)

	var published []int
	d := newTestDispatcher(db, func(ctx context.Context, msg config.DocumentEventMessage) (string, error) {
		published = append(published, msg.ReferenceId)
		return "msg-1", nil
	})

	if sent := d.DispatchOnce(context.Background()); sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(published) != 2 || published[0] != 1 || published[1] != 2 {
		t.Fatalf("published out of order: %v", published)
	}
	for _, id := range []int{first.ID, second.ID} {
		rec := loadEvent(t, db, id)
		if rec.PublishStatus != models.OutboxPublishStatusSent || rec.PublishAttempts != 1 {
			t.Fatalf("event %d: status=%s attempts=%d", id, rec.PublishStatus, rec.PublishAttempts)
		}
		if rec.PubSubMessageId == nil || *rec.PubSubMessageId != "msg-1" || rec.LockedBy != nil {
			t.Fatalf("event %d not released after send: %+v", id, rec)
		}
	}

	if sent := d.DispatchOnce(context.Background()); sent != 0 {
		t.Fatalf("second pass re-sent %d events", sent)
	}
}

func TestDispatchOnceBacksOffThenGoesDead(t *testing.T) {
	db := setupDispatcherDB(t)
	rec := insertEvent(t, db, 7)

	d := newTestDispatcher(db, func(ctx context.Context, msg config.DocumentEventMessage) (string, error) {
		return "", errors.New("broker unavailable")
	})

	if sent := d.DispatchOnce(context.Background()); sent != 0 {
		t.Fatalf("sent = %d, want 0", sent)
	}
	failed := loadEvent(t, db, rec.ID)
	if failed.PublishStatus != models.OutboxPublishStatusFailed || failed.PublishAttempts != 1 {
		t.Fatalf("after first failure: status=%s attempts=%d", failed.PublishStatus, failed.PublishAttempts)
	}
	if failed.NextAttemptAt == nil || !failed.NextAttemptAt.After(time.Now().UTC()) {
		t.Fatalf("next attempt not scheduled in the future: %v", failed.NextAttemptAt)
	}
	if failed.LastPublishError == nil || *failed.LastPublishError != "broker unavailable" {
		t.Fatalf("last error = %v", failed.LastPublishError)
	}

	// not yet due
	d.DispatchOnce(context.Background())
	if got := loadEvent(t, db, rec.ID); got.PublishAttempts != 1 {
		t.Fatalf("event retried before its backoff elapsed: attempts=%d", got.PublishAttempts)
	}

	if err := db.Model(&models.DocumentEventRecord{}).Where("id = ?", rec.ID).
		Update("next_attempt_at", time.Now().UTC().Add(-time.Second)).Error; err != nil {
		t.Fatalf("expire backoff: %v", err)
	}
	d.DispatchOnce(context.Background())
	dead := loadEvent(t, db, rec.ID)
	if dead.PublishStatus != models.OutboxPublishStatusDead || dead.PublishAttempts != 2 {
		t.Fatalf("after max attempts: status=%s attempts=%d", dead.PublishStatus, dead.PublishAttempts)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	d := &OutboxDispatcher{InitialBackoff: 5 * time.Second}
	cases := map[int]time.Duration{
		1:  5 * time.Second,
		2:  10 * time.Second,
		4:  40 * time.Second,
		20: 10 * time.Minute,
	}
	for attempt, want := range cases {
		if got := d.backoffFor(attempt); got != want {
			t.Errorf("backoffFor(%d) = %s, want %s", attempt, got, want)
		}
	}
}

func TestRunReconciliationChecksLogsMismatches(t *testing.T) {
	setupDispatcherDB(t)
	logger, hook := test.NewNullLogger()

	found, err := RunReconciliationChecks(context.Background(), logger, "biz-empty")
	if err != nil {
		t.Fatalf("RunReconciliationChecks: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("empty business reported %d mismatches", len(found))
	}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			t.Fatalf("unexpected warning: %s", e.Message)
		}
	}
}
