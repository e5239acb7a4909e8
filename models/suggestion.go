package models

import "time"

// Edit suggestion statuses.
const (
	SuggestionPending    = "pending"
	SuggestionAccepted   = "accepted"
	SuggestionRejected   = "rejected"
	SuggestionSuperseded = "superseded"
)

// EditSuggestion is a reviewer-proposed replacement value for one named
// field of a submission. Suggestions are resolved exclusively by the
// applicant and are never deleted; a newer suggestion for the same field
// supersedes the older pending one. At most one pending suggestion exists
// per (submission, field).
type EditSuggestion struct {
	SuggestionID   int        `gorm:"primaryKey;column:suggestion_id" json:"suggestion_id"`
	SubmissionID   int        `gorm:"column:submission_id" json:"submission_id"`
	ReviewerID     int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	FieldName      string     `gorm:"column:field_name" json:"field_name"`
	FieldPath      string     `gorm:"column:field_path" json:"field_path"`
	OriginalValue  string     `gorm:"column:original_value" json:"original_value"`
	SuggestedValue string     `gorm:"column:suggested_value" json:"suggested_value"`
	Note           *string    `gorm:"column:note" json:"note,omitempty"`
	Status         string     `gorm:"column:status" json:"status"`
	ResponseNote   *string    `gorm:"column:response_note" json:"response_note,omitempty"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	ResolvedAt     *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (EditSuggestion) TableName() string { return "edit_suggestions" }
