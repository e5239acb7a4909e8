package services

import (
	"errors"
	"fmt"
	"research-portal-api/models"
	"time"

	"gorm.io/gorm"
)

// Event is a workflow action requested against a submission.
type Event string

const (
	EventSubmit         Event = "submit"
	EventMentorApprove  Event = "mentor_approve"
	EventStartReview    Event = "start_review"
	EventRequestChanges Event = "request_changes"
	EventResubmit       Event = "resubmit"
	EventRecommend      Event = "recommend"
	EventApprove        Event = "approve"
	EventReject         Event = "reject"
	EventCredit         Event = "credit"
	EventCancel         Event = "cancel"
)

// transitionRule declares the from-set and target status for one event.
// The submit target is adjusted at runtime for the grant mentor gate.
type transitionRule struct {
	event Event
	from  []string
	to    string
}

var transitionTable = []transitionRule{
	{EventSubmit, []string{models.StatusDraft}, models.StatusSubmitted},
	{EventMentorApprove, []string{models.StatusPendingMentorApproval}, models.StatusSubmitted},
	{EventStartReview, []string{models.StatusSubmitted, models.StatusResubmitted}, models.StatusUnderReview},
	{EventRequestChanges, []string{models.StatusUnderReview}, models.StatusChangesRequired},
	{EventResubmit, []string{models.StatusChangesRequired}, models.StatusResubmitted},
	{EventRecommend, []string{models.StatusUnderReview}, models.StatusRecommended},
	{EventApprove, []string{models.StatusRecommended, models.StatusUnderReview}, models.StatusApproved},
	{EventReject, []string{
		models.StatusPendingMentorApproval,
		models.StatusSubmitted,
		models.StatusUnderReview,
		models.StatusChangesRequired,
		models.StatusResubmitted,
		models.StatusRecommended,
	}, models.StatusRejected},
	{EventCredit, []string{models.StatusApproved}, models.StatusCompleted},
	{EventCancel, []string{models.StatusDraft}, models.StatusCancelled},
}

func ruleFor(event Event) (transitionRule, bool) {
	for _, rule := range transitionTable {
		if rule.event == event {
			return rule, true
		}
	}
	return transitionRule{}, false
}

func (r transitionRule) allowsFrom(status string) bool {
	for _, s := range r.from {
		if s == status {
			return true
		}
	}
	return false
}

// TransitionRequest carries one workflow action.
type TransitionRequest struct {
	SubmissionID int
	Event        Event
	Actor        *Capability
	Comment      string

	// Finance may override the calculated figures at credit time. The
	// audited figures are stored separately and never replace the
	// calculated ones.
	CreditedAmount *float64
	CreditedPoints *float64
}

// WorkflowService validates and executes submission state transitions.
type WorkflowService struct {
	db       *gorm.DB
	policies *PolicyService
	notifier *NotificationService
}

func NewWorkflowService(db *gorm.DB, policies *PolicyService, notifier *NotificationService) *WorkflowService {
	return &WorkflowService{db: db, policies: policies, notifier: notifier}
}

// Transition executes one workflow event. The status write is a
// compare-and-swap on the status read at the start of the call: if a
// concurrent transition changed it first, the caller gets ErrConflict and
// no state is touched. Exactly one history row is appended per successful
// transition, in the same transaction as the status write.
func (s *WorkflowService) Transition(req *TransitionRequest) (*models.Submission, error) {
	if req.Actor == nil {
		return nil, fmt.Errorf("%w: missing actor", ErrValidation)
	}

	var submission models.Submission
	if err := s.db.Where("submission_id = ? AND delete_at IS NULL", req.SubmissionID).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: submission %d", ErrNotFound, req.SubmissionID)
		}
		return nil, fmt.Errorf("failed to load submission %d: %w", req.SubmissionID, err)
	}

	rule, ok := ruleFor(req.Event)
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, req.Event)
	}
	if !rule.allowsFrom(submission.Status) {
		return nil, fmt.Errorf("%w: event %q is not valid from status %q", ErrInvalidTransition, req.Event, submission.Status)
	}

	if err := s.authorize(req, &submission); err != nil {
		return nil, err
	}

	target := rule.to
	if req.Event == EventSubmit && submission.SubmissionKind == models.KindGrant {
		gated, err := s.mentorGateApplies(submission.SubmissionID)
		if err != nil {
			return nil, err
		}
		if gated {
			target = models.StatusPendingMentorApproval
		}
	}

	switch req.Event {
	case EventSubmit:
		if err := s.validateForSubmit(&submission); err != nil {
			return nil, err
		}
	case EventResubmit:
		pending, err := CountPendingSuggestions(s.db, submission.SubmissionID)
		if err != nil {
			return nil, err
		}
		if pending > 0 {
			return nil, fmt.Errorf("%w: %d suggestion(s) still pending", ErrUnresolvedSuggestions, pending)
		}
	}

	fromStatus := submission.Status
	now := time.Now()
	updates := map[string]interface{}{
		"status":    target,
		"update_at": now,
	}
	metadata := map[string]interface{}{"event": string(req.Event)}

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

	var shares []models.SubmissionIncentiveShare

	switch req.Event {
	case EventSubmit:
		updates["submitted_at"] = now
		if submission.ApplicationNumber == nil {
			number, err := generateApplicationNumber(tx, submission.SubmissionKind)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			updates["application_number"] = number
			metadata["application_number"] = number
		}
	case EventStartReview:
		updates["current_reviewer_id"] = req.Actor.UserID
	case EventApprove:
		// Authoritative calculation: policy and roster are read inside the
		// same transaction as the status write, so the approval cannot
		// commit without a committed incentive figure.
		result, err := s.calculateIncentiveTx(tx, &submission, now)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		updates["calculated_amount"] = result.TotalAmount
		updates["calculated_points"] = result.TotalPoints
		metadata["policy_id"] = result.PolicyID
		metadata["calculated_amount"] = result.TotalAmount
		metadata["calculated_points"] = result.TotalPoints
		for _, share := range result.Shares {
			shares = append(shares, models.SubmissionIncentiveShare{
				SubmissionID:   submission.SubmissionID,
				InvestigatorID: share.InvestigatorID,
				PolicyID:       result.PolicyID,
				Amount:         share.Amount,
				Points:         share.Points,
				CreateAt:       now,
			})
		}
	case EventCredit:
		creditedAmount := submission.CalculatedAmount
		if req.CreditedAmount != nil {
			creditedAmount = req.CreditedAmount
		}
		creditedPoints := submission.CalculatedPoints
		if req.CreditedPoints != nil {
			creditedPoints = req.CreditedPoints
		}
		if creditedAmount == nil || creditedPoints == nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: submission %d has no calculated incentive to credit", ErrValidation, submission.SubmissionID)
		}
		updates["credited_amount"] = *creditedAmount
		updates["credited_points"] = *creditedPoints
		updates["credited_by"] = req.Actor.UserID
		updates["credited_at"] = now
		updates["completed_at"] = now
		metadata["credited_amount"] = *creditedAmount
		metadata["credited_points"] = *creditedPoints
	}

	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", submission.SubmissionID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update submission status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: submission %d status changed concurrently", ErrConflict, submission.SubmissionID)
	}

	for i := range shares {
		if err := tx.Create(&shares[i]).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to persist incentive share: %w", err)
		}
	}

	if err := AppendStatusHistory(tx, submission.SubmissionID, &fromStatus, target, req.Actor.UserID, req.Comment, metadata); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	var updated models.Submission
	if err := s.db.Where("submission_id = ?", submission.SubmissionID).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload submission %d: %w", submission.SubmissionID, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyTransition(&updated, fromStatus, target, req.Actor.UserID, req.Comment)
	}

	return &updated, nil
}

// authorize enforces the role gate for one event. Authority derives from
// the applicant relationship, the scoped reviewer assignment, or the
// head/admin/finance roles; a bare admin check alone is only ever an
// override on top of those.
func (s *WorkflowService) authorize(req *TransitionRequest, submission *models.Submission) error {
	actor := req.Actor
	switch req.Event {
	case EventSubmit, EventResubmit, EventCancel:
		if !actor.CanActFor(submission.UserID) {
			return fmt.Errorf("%w: only the applicant may %s", ErrForbidden, req.Event)
		}
	case EventMentorApprove:
		mentorID, err := s.mentorFor(submission.SubmissionID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && (mentorID == nil || *mentorID != actor.UserID) {
			return fmt.Errorf("%w: only the assigned mentor may approve", ErrForbidden)
		}
	case EventStartReview, EventRequestChanges, EventRecommend:
		if !actor.CanReview(submission.SubmissionKind, submission.SchoolID) {
			return fmt.Errorf("%w: no reviewer assignment for this school and category", ErrForbidden)
		}
	case EventReject:
		if !actor.CanReview(submission.SubmissionKind, submission.SchoolID) && !actor.CanApprove() {
			return fmt.Errorf("%w: no reject authority for this submission", ErrForbidden)
		}
	case EventApprove:
		if !actor.CanApprove() {
			return fmt.Errorf("%w: final approval requires the department head", ErrForbidden)
		}
	case EventCredit:
		if !actor.CanCredit() {
			return fmt.Errorf("%w: crediting requires the finance role", ErrForbidden)
		}
	default:
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, req.Event)
	}
	return nil
}

func (s *WorkflowService) mentorFor(submissionID int) (*int, error) {
	var detail models.GrantDetail
	if err := s.db.Where("submission_id = ?", submissionID).First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load grant detail: %w", err)
	}
	return detail.MentorUserID, nil
}

func (s *WorkflowService) mentorGateApplies(submissionID int) (bool, error) {
	mentorID, err := s.mentorFor(submissionID)
	if err != nil {
		return false, err
	}
	return mentorID != nil, nil
}

// validateForSubmit checks the invariants that must hold before a draft
// leaves the applicant's hands: a kind-specific detail exists and the
// roster is non-empty with a valid role vocabulary.
func (s *WorkflowService) validateForSubmit(submission *models.Submission) error {
	fields, err := LoadSubmissionFields(s.db, submission)
	if err != nil {
		return err
	}
	if !fields.detailLoaded() {
		return fmt.Errorf("%w: submission %d is missing its %s detail", ErrValidation, submission.SubmissionID, submission.SubmissionKind)
	}

	var roster []models.SubmissionInvestigator
	if err := s.db.Where("submission_id = ?", submission.SubmissionID).Order("display_order ASC").Find(&roster).Error; err != nil {
		return fmt.Errorf("failed to load investigators: %w", err)
	}
	if len(roster) == 0 {
		return fmt.Errorf("%w: submission %d has no investigators", ErrValidation, submission.SubmissionID)
	}

	internal := 0
	for _, inv := range roster {
		if !models.ValidRoleType(submission.SubmissionKind, inv.RoleType) {
			return fmt.Errorf("%w: role type %q is not valid for %s submissions", ErrValidation, inv.RoleType, submission.SubmissionKind)
		}
		if !inv.IsExternal {
			internal++
		}
	}
	if internal == 0 {
		return fmt.Errorf("%w: submission %d has no internal investigator", ErrValidation, submission.SubmissionID)
	}
	return nil
}

// calculateIncentiveTx runs the authoritative incentive calculation against
// tx. PolicyNotFound aborts the approve transition.
func (s *WorkflowService) calculateIncentiveTx(tx *gorm.DB, submission *models.Submission, at time.Time) (*IncentiveResult, error) {
	fields, err := LoadSubmissionFields(tx, submission)
	if err != nil {
		return nil, err
	}
	submission.IPRDetail = fields.IPR
	submission.PublicationDetail = fields.Publication
	submission.GrantDetail = fields.Grant

	subType, err := PolicySubType(submission)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.FindActivePolicyTx(tx, submission.SubmissionKind, subType, at)
	if err != nil {
		return nil, err
	}

	var roster []models.SubmissionInvestigator
	if err := tx.Where("submission_id = ?", submission.SubmissionID).Order("display_order ASC").Find(&roster).Error; err != nil {
		return nil, fmt.Errorf("failed to load investigators: %w", err)
	}

	return CalculateIncentive(policy, submission, roster)
}

// LoadSubmissionFields loads the kind-specific detail for a submission.
func LoadSubmissionFields(db *gorm.DB, submission *models.Submission) (*SubmissionFields, error) {
	fields := &SubmissionFields{Submission: submission}

	var err error
	switch submission.SubmissionKind {
	case models.KindIPR:
		var detail models.IPRDetail
		err = db.Where("submission_id = ?", submission.SubmissionID).First(&detail).Error
		if err == nil {
			fields.IPR = &detail
		}
	case models.KindPublication:
		var detail models.PublicationDetail
		err = db.Where("submission_id = ?", submission.SubmissionID).First(&detail).Error
		if err == nil {
			fields.Publication = &detail
		}
	case models.KindGrant:
		var detail models.GrantDetail
		err = db.Where("submission_id = ?", submission.SubmissionID).First(&detail).Error
		if err == nil {
			fields.Grant = &detail
		}
	default:
		return nil, fmt.Errorf("%w: unknown submission kind %q", ErrValidation, submission.SubmissionKind)
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load submission detail: %w", err)
	}
	return fields, nil
}

// applicationNumberPrefixes maps submission kinds to number prefixes.
var applicationNumberPrefixes = map[string]string{
	models.KindIPR:         "IP",
	models.KindPublication: "RP",
	models.KindGrant:       "GR",
}

// generateApplicationNumber assigns the next sequential number for the kind
// within the current Buddhist-era year, e.g. RP-2569-0007.
func generateApplicationNumber(tx *gorm.DB, kind string) (string, error) {
	prefix, ok := applicationNumberPrefixes[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown submission kind %q", ErrValidation, kind)
	}

	year := time.Now().Year() + 543
	like := fmt.Sprintf("%s-%d-%%", prefix, year)

	var count int64
	if err := tx.Model(&models.Submission{}).
		Where("submission_kind = ? AND application_number LIKE ?", kind, like).
		Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to count application numbers: %w", err)
	}

	return fmt.Sprintf("%s-%d-%04d", prefix, year, count+1), nil
}
