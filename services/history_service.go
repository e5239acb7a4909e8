package services

import (
	"encoding/json"
	"fmt"
	"research-portal-api/models"
	"time"

	"gorm.io/gorm"
)

// AppendStatusHistory inserts one history row inside the caller's
// transaction. A failed insert fails the transaction, so status writes and
// their history are one atomic unit.
func AppendStatusHistory(tx *gorm.DB, submissionID int, oldStatus *string, newStatus string, changedBy int, comment string, metadata map[string]interface{}) error {
	entry := models.SubmissionStatusHistory{
		SubmissionID: submissionID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		ChangedBy:    changedBy,
		CreatedAt:    time.Now(),
	}

	if comment != "" {
		entry.Comment = &comment
	}

	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode history metadata: %w", err)
		}
		encoded := string(raw)
		entry.Metadata = &encoded
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// SubmissionHistory returns the full transition history ordered oldest
// first. The ordering is a contract: consumers reconstruct who acted after
// whom from it.
func SubmissionHistory(db *gorm.DB, submissionID int) ([]models.SubmissionStatusHistory, error) {
	var entries []models.SubmissionStatusHistory
	err := db.
		Preload("Actor").
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, history_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return entries, nil
}
