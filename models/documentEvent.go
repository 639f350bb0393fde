package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

// Outbox publish statuses for DocumentEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// DocumentEventRecord is written in the same transaction as the document change it describes;
// the outbox dispatcher publishes it after commit.
type DocumentEventRecord struct {
	ID                  int                   `gorm:"primary_key;index:idx_document_event_dispatch,priority:3" json:"id"`
	BusinessId          string                `gorm:"size:64;not null;index" json:"business_id"`
	TransactionDateTime time.Time             `gorm:"index;not null" json:"transaction_date_time"`
	ReferenceId         int                   `gorm:"index" json:"reference_id"`
	ReferenceType       DocumentReferenceType `gorm:"size:10;not null" json:"reference_type"`
	Action              DocumentAction        `gorm:"size:1;not null" json:"action"`
	Payload             []byte                `json:"payload"`
	PublishStatus       string                `gorm:"size:20;index;not null;default:'PENDING';index:idx_document_event_dispatch,priority:1" json:"publish_status"`
	PublishedAt         *time.Time            `gorm:"index" json:"published_at"`
	PubSubMessageId     *string               `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts     int                   `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt       *time.Time            `gorm:"index;index:idx_document_event_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt            *time.Time            `gorm:"index" json:"locked_at"`
	LockedBy            *string               `gorm:"size:100" json:"locked_by"`
	LastPublishError    *string               `gorm:"type:text" json:"last_publish_error"`
	CorrelationId       string                `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt           time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// recordDocumentEvent queues a snapshot of a committed document for publishing.
func recordDocumentEvent(tx *gorm.DB, referenceType DocumentReferenceType, referenceId int, action DocumentAction, snapshot interface{}) error {
	ctx := tx.Statement.Context
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	record := DocumentEventRecord{
		BusinessId:          businessId,
		TransactionDateTime: time.Now().UTC(),
		ReferenceId:         referenceId,
		ReferenceType:       referenceType,
		Action:              action,
		Payload:             payload,
		PublishStatus:       OutboxPublishStatusPending,
		CorrelationId:       correlationId,
	}
	return tx.Create(&record).Error
}

func (r DocumentEventRecord) ToMessage() config.DocumentEventMessage {
	return config.DocumentEventMessage{
		ID:                  r.ID,
		BusinessId:          r.BusinessId,
		TransactionDateTime: r.TransactionDateTime,
		ReferenceId:         r.ReferenceId,
		ReferenceType:       string(r.ReferenceType),
		Action:              string(r.Action),
		Payload:             r.Payload,
		CorrelationId:       r.CorrelationId,
	}
}

// writeAudit records both the history row and the outbox event of a document change.
func writeAudit(tx *gorm.DB, referenceType DocumentReferenceType, referenceId int, action DocumentAction, before interface{}, after interface{}, description string) error {
	actionType := map[DocumentAction]string{
		DocumentActionCreate: "CREATE",
		DocumentActionUpdate: "UPDATE",
		DocumentActionDelete: "DELETE",
	}[action]
	if err := createHistory(tx, actionType, referenceId, string(referenceType), before, after, description); err != nil {
		return err
	}
	snapshot := after
	if action == DocumentActionDelete {
		snapshot = before
	}
	return recordDocumentEvent(tx, referenceType, referenceId, action, snapshot)
}
