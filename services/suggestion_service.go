package services

import (
	"errors"
	"fmt"
	"research-portal-api/models"
	"time"

	"gorm.io/gorm"
)

// ProposeInput is one reviewer-proposed field edit.
type ProposeInput struct {
	FieldName      string `json:"field_name" binding:"required"`
	SuggestedValue string `json:"suggested_value" binding:"required"`
	Note           string `json:"note"`
}

// RespondInput pairs a suggestion with the applicant's decision.
type RespondInput struct {
	SuggestionID int    `json:"suggestion_id" binding:"required"`
	Action       string `json:"action" binding:"required"` // accept | reject
	ResponseNote string `json:"response_note"`
}

// RespondResult reports the per-item outcome of a batch response.
type RespondResult struct {
	SuggestionID int    `json:"suggestion_id"`
	Status       string `json:"status"` // accepted | rejected | error
	Error        string `json:"error,omitempty"`
}

// SuggestionService is the collaborative edit-suggestion ledger. Reviewers
// propose replacement values for registered fields; the applicant accepts
// or rejects each one independently. Suggestions are never deleted.
type SuggestionService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewSuggestionService(db *gorm.DB, notifier *NotificationService) *SuggestionService {
	return &SuggestionService{db: db, notifier: notifier}
}

// reviewCapable reports whether reviewers may write suggestions against a
// submission in this status.
func reviewCapable(status string) bool {
	return status == models.StatusUnderReview
}

// Propose records one suggestion. An existing pending suggestion for the
// same field is marked superseded first, so at most one live suggestion
// exists per (submission, field). The supersede is a conditional update on
// status=pending, so concurrent proposals resolve cleanly.
func (s *SuggestionService) Propose(submissionID int, actor *Capability, input *ProposeInput) (*models.EditSuggestion, error) {
	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	if !reviewCapable(submission.Status) {
		return nil, fmt.Errorf("%w: suggestions require an in-review submission, status is %q", ErrInvalidTransition, submission.Status)
	}
	if !actor.CanReview(submission.SubmissionKind, submission.SchoolID) {
		return nil, fmt.Errorf("%w: no reviewer assignment for this school and category", ErrForbidden)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	suggestion, err := s.insertSuggestion(tx, submission, actor.UserID, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit suggestion: %w", err)
	}
	return suggestion, nil
}

// BatchPropose atomically records a set of suggestions and moves the
// submission to changes_required. Either every suggestion is recorded and
// the transition committed, or nothing is.
func (s *SuggestionService) BatchPropose(submissionID int, actor *Capability, inputs []ProposeInput, overallComment string) (*models.Submission, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one suggestion is required", ErrValidation)
	}

	submission, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	if !reviewCapable(submission.Status) {
		return nil, fmt.Errorf("%w: request_changes is not valid from status %q", ErrInvalidTransition, submission.Status)
	}
	if !actor.CanReview(submission.SubmissionKind, submission.SchoolID) {
		return nil, fmt.Errorf("%w: no reviewer assignment for this school and category", ErrForbidden)
	}

	fromStatus := submission.Status
	now := time.Now()

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	for i := range inputs {
		if _, err := s.insertSuggestion(tx, submission, actor.UserID, &inputs[i]); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Same compare-and-swap discipline as the workflow service: the
	// transition only commits if the status is still the one we read.
	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", submission.SubmissionID, fromStatus).
		Updates(map[string]interface{}{
			"status":    models.StatusChangesRequired,
			"update_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update submission status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: submission %d status changed concurrently", ErrConflict, submission.SubmissionID)
	}

	metadata := map[string]interface{}{
		"event":            string(EventRequestChanges),
		"suggestion_count": len(inputs),
	}
	if err := AppendStatusHistory(tx, submission.SubmissionID, &fromStatus, models.StatusChangesRequired, actor.UserID, overallComment, metadata); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit request_changes: %w", err)
	}

	var updated models.Submission
	if err := s.db.Where("submission_id = ?", submission.SubmissionID).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload submission %d: %w", submission.SubmissionID, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyTransition(&updated, fromStatus, models.StatusChangesRequired, actor.UserID, overallComment)
	}
	return &updated, nil
}

// insertSuggestion supersedes any pending suggestion for the same field and
// inserts the new one, all inside tx.
func (s *SuggestionService) insertSuggestion(tx *gorm.DB, submission *models.Submission, reviewerID int, input *ProposeInput) (*models.EditSuggestion, error) {
	fields, err := LoadSubmissionFields(tx, submission)
	if err != nil {
		return nil, err
	}
	original, err := FieldValue(fields, input.FieldName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := tx.Model(&models.EditSuggestion{}).
		Where("submission_id = ? AND field_name = ? AND status = ?", submission.SubmissionID, input.FieldName, models.SuggestionPending).
		Updates(map[string]interface{}{
			"status":    models.SuggestionSuperseded,
			"update_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to supersede prior suggestion: %w", err)
	}

	suggestion := models.EditSuggestion{
		SubmissionID:   submission.SubmissionID,
		ReviewerID:     reviewerID,
		FieldName:      input.FieldName,
		FieldPath:      submission.SubmissionKind + "." + input.FieldName,
		OriginalValue:  original,
		SuggestedValue: input.SuggestedValue,
		Status:         models.SuggestionPending,
		CreateAt:       now,
	}
	if input.Note != "" {
		note := input.Note
		suggestion.Note = &note
	}

	if err := tx.Create(&suggestion).Error; err != nil {
		return nil, fmt.Errorf("failed to insert suggestion: %w", err)
	}
	return &suggestion, nil
}

// Respond resolves one suggestion. Only the submission's applicant may
// respond; on accept the suggested value is written through the field
// registry into the live payload. Submission status is never changed here.
func (s *SuggestionService) Respond(suggestionID int, actor *Capability, action, responseNote string) (*models.EditSuggestion, error) {
	if action != "accept" && action != "reject" {
		return nil, fmt.Errorf("%w: action must be accept or reject", ErrValidation)
	}

	var suggestion models.EditSuggestion
	if err := s.db.Where("suggestion_id = ?", suggestionID).First(&suggestion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: suggestion %d", ErrNotFound, suggestionID)
		}
		return nil, fmt.Errorf("failed to load suggestion %d: %w", suggestionID, err)
	}

	submission, err := s.loadSubmission(suggestion.SubmissionID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(submission.UserID) {
		return nil, fmt.Errorf("%w: only the applicant may respond to suggestions", ErrForbidden)
	}
	if suggestion.Status != models.SuggestionPending {
		return nil, fmt.Errorf("%w: suggestion %d is already %s", ErrInvalidTransition, suggestionID, suggestion.Status)
	}

	newStatus := models.SuggestionRejected
	if action == "accept" {
		newStatus = models.SuggestionAccepted
	}

	now := time.Now()

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if action == "accept" {
		fields, err := LoadSubmissionFields(tx, submission)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := ApplyFieldValue(fields, suggestion.FieldName, suggestion.SuggestedValue); err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := s.saveDetail(tx, fields, now); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"status":      newStatus,
		"resolved_at": now,
		"update_at":   now,
	}
	if responseNote != "" {
		updates["response_note"] = responseNote
	}

	// Conditional on pending so two concurrent responses resolve to one.
	res := tx.Model(&models.EditSuggestion{}).
		Where("suggestion_id = ? AND status = ?", suggestionID, models.SuggestionPending).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update suggestion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: suggestion %d was resolved concurrently", ErrConflict, suggestionID)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit suggestion response: %w", err)
	}

	suggestion.Status = newStatus
	suggestion.ResolvedAt = &now
	if responseNote != "" {
		suggestion.ResponseNote = &responseNote
	}

	if s.notifier != nil {
		s.notifier.NotifySuggestionResolved(submission, &suggestion, actor.UserID)
	}
	return &suggestion, nil
}

// BatchRespond applies each response independently: a failure on one item
// never rolls back the others. Per-item results are reported back.
func (s *SuggestionService) BatchRespond(submissionID int, actor *Capability, inputs []RespondInput) []RespondResult {
	results := make([]RespondResult, 0, len(inputs))
	for _, input := range inputs {
		result := RespondResult{SuggestionID: input.SuggestionID}

		suggestion, err := s.Respond(input.SuggestionID, actor, input.Action, input.ResponseNote)
		switch {
		case err != nil:
			result.Status = "error"
			result.Error = err.Error()
		case suggestion.SubmissionID != submissionID:
			// Responded fine but flag the mismatch for the caller.
			result.Status = suggestion.Status
			result.Error = fmt.Sprintf("suggestion belongs to submission %d", suggestion.SubmissionID)
		default:
			result.Status = suggestion.Status
		}
		results = append(results, result)
	}
	return results
}

// ListSuggestions returns all suggestions for a submission, newest first.
func (s *SuggestionService) ListSuggestions(submissionID int) ([]models.EditSuggestion, error) {
	var suggestions []models.EditSuggestion
	err := s.db.
		Preload("Reviewer").
		Where("submission_id = ?", submissionID).
		Order("create_at DESC, suggestion_id DESC").
		Find(&suggestions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}
	return suggestions, nil
}

// CountPendingSuggestions is the resubmit guard: resubmission requires it
// to be zero.
func CountPendingSuggestions(db *gorm.DB, submissionID int) (int64, error) {
	var count int64
	err := db.Model(&models.EditSuggestion{}).
		Where("submission_id = ? AND status = ?", submissionID, models.SuggestionPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending suggestions: %w", err)
	}
	return count, nil
}

func (s *SuggestionService) loadSubmission(submissionID int) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.Where("submission_id = ? AND delete_at IS NULL", submissionID).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: submission %d", ErrNotFound, submissionID)
		}
		return nil, fmt.Errorf("failed to load submission %d: %w", submissionID, err)
	}
	return &submission, nil
}

func (s *SuggestionService) saveDetail(tx *gorm.DB, fields *SubmissionFields, now time.Time) error {
	var err error
	switch {
	case fields.IPR != nil:
		fields.IPR.UpdateAt = &now
		err = tx.Save(fields.IPR).Error
	case fields.Publication != nil:
		fields.Publication.UpdateAt = &now
		err = tx.Save(fields.Publication).Error
	case fields.Grant != nil:
		fields.Grant.UpdateAt = &now
		err = tx.Save(fields.Grant).Error
	default:
		return fmt.Errorf("%w: submission %d detail not loaded", ErrValidation, fields.Submission.SubmissionID)
	}
	if err != nil {
		return fmt.Errorf("failed to save submission detail: %w", err)
	}
	return nil
}
