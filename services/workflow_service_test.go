package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"research-portal-api/models"
)

func assignedReviewerCap(userID int, kind string, schoolID int) *Capability {
	return &Capability{
		UserID:      userID,
		RoleID:      models.RoleReviewer,
		assignments: map[string]map[int]bool{kind: {schoolID: true}},
	}
}

func applicantCap(userID int) *Capability {
	return &Capability{
		UserID:      userID,
		RoleID:      models.RoleApplicant,
		assignments: map[string]map[int]bool{},
	}
}

func financeCap(userID int) *Capability {
	return &Capability{
		UserID:      userID,
		RoleID:      models.RoleFinance,
		isFinance:   true,
		assignments: map[string]map[int]bool{},
	}
}

func loadSubmissionStep(status string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("^SELECT \\* FROM `submissions` WHERE submission_id = \\? AND delete_at IS NULL"),
		anyArgs: true,
		columns: []string{"submission_id", "user_id", "submission_kind", "status", "school_id"},
		rows:    [][]driver.Value{{int64(1), int64(10), models.KindPublication, status, int64(3)}},
	}
}

func reloadSubmissionStep(status string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("^SELECT \\* FROM `submissions` WHERE submission_id = \\? ORDER BY"),
		anyArgs: true,
		columns: []string{"submission_id", "user_id", "submission_kind", "status", "school_id"},
		rows:    [][]driver.Value{{int64(1), int64(10), models.KindPublication, status, int64(3)}},
	}
}

func TestTransitionRulesMatchLifecycle(t *testing.T) {
	statuses := []string{
		models.StatusDraft,
		models.StatusPendingMentorApproval,
		models.StatusSubmitted,
		models.StatusUnderReview,
		models.StatusChangesRequired,
		models.StatusResubmitted,
		models.StatusRecommended,
		models.StatusApproved,
		models.StatusCompleted,
		models.StatusRejected,
		models.StatusCancelled,
	}

	legal := map[Event]map[string]bool{
		EventSubmit:         {models.StatusDraft: true},
		EventMentorApprove:  {models.StatusPendingMentorApproval: true},
		EventStartReview:    {models.StatusSubmitted: true, models.StatusResubmitted: true},
		EventRequestChanges: {models.StatusUnderReview: true},
		EventResubmit:       {models.StatusChangesRequired: true},
		EventRecommend:      {models.StatusUnderReview: true},
		EventApprove:        {models.StatusRecommended: true, models.StatusUnderReview: true},
		EventReject: {
			models.StatusPendingMentorApproval: true,
			models.StatusSubmitted:             true,
			models.StatusUnderReview:           true,
			models.StatusChangesRequired:       true,
			models.StatusResubmitted:           true,
			models.StatusRecommended:           true,
		},
		EventCredit: {models.StatusApproved: true},
		EventCancel: {models.StatusDraft: true},
	}

	targets := map[Event]string{
		EventSubmit:         models.StatusSubmitted,
		EventMentorApprove:  models.StatusSubmitted,
		EventStartReview:    models.StatusUnderReview,
		EventRequestChanges: models.StatusChangesRequired,
		EventResubmit:       models.StatusResubmitted,
		EventRecommend:      models.StatusRecommended,
		EventApprove:        models.StatusApproved,
		EventReject:         models.StatusRejected,
		EventCredit:         models.StatusCompleted,
		EventCancel:         models.StatusCancelled,
	}

	for event, want := range legal {
		rule, ok := ruleFor(event)
		if !ok {
			t.Fatalf("event %q has no rule", event)
		}
		if rule.to != targets[event] {
			t.Fatalf("event %q targets %q, want %q", event, rule.to, targets[event])
		}
		for _, status := range statuses {
			if got := rule.allowsFrom(status); got != want[status] {
				t.Fatalf("event %q from %q: allowed=%v, want %v", event, status, got, want[status])
			}
		}
	}

	if _, ok := ruleFor(Event("archive")); ok {
		t.Fatal("unknown event must have no rule")
	}

	// Terminal statuses admit no event at all.
	for _, terminal := range []string{models.StatusCompleted, models.StatusRejected, models.StatusCancelled} {
		for event := range legal {
			rule, _ := ruleFor(event)
			if rule.allowsFrom(terminal) {
				t.Fatalf("terminal status %q must not admit event %q", terminal, event)
			}
		}
	}
}

func TestStartReviewTransitions(t *testing.T) {
	steps := []*queryStep{
		loadSubmissionStep(models.StatusSubmitted),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("^UPDATE `submissions` SET"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("^INSERT INTO `submission_status_history`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		reloadSubmissionStep(models.StatusUnderReview),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	updated, err := svc.Transition(&TransitionRequest{
		SubmissionID: 1,
		Event:        EventStartReview,
		Actor:        assignedReviewerCap(20, models.KindPublication, 3),
	})
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if updated.Status != models.StatusUnderReview {
		t.Fatalf("expected status under_review, got %q", updated.Status)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConcurrentTransitionConflicts(t *testing.T) {
	steps := []*queryStep{
		loadSubmissionStep(models.StatusSubmitted),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("^UPDATE `submissions` SET"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	_, err := svc.Transition(&TransitionRequest{
		SubmissionID: 1,
		Event:        EventStartReview,
		Actor:        assignedReviewerCap(20, models.KindPublication, 3),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// The lost race must not have written a history row.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResubmitBlockedByPendingSuggestions(t *testing.T) {
	steps := []*queryStep{
		loadSubmissionStep(models.StatusChangesRequired),
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("^SELECT count\\(\\*\\) FROM `edit_suggestions`"),
			anyArgs: true,
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(2)}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	_, err := svc.Transition(&TransitionRequest{
		SubmissionID: 1,
		Event:        EventResubmit,
		Actor:        applicantCap(10),
	})
	if !errors.Is(err, ErrUnresolvedSuggestions) {
		t.Fatalf("expected ErrUnresolvedSuggestions, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveFromDraftIsInvalid(t *testing.T) {
	steps := []*queryStep{
		loadSubmissionStep(models.StatusDraft),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	_, err := svc.Transition(&TransitionRequest{
		SubmissionID: 1,
		Event:        EventApprove,
		Actor:        &Capability{UserID: 40, RoleID: models.RoleDeptHead, isHead: true},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStartReviewRequiresAssignment(t *testing.T) {
	steps := []*queryStep{
		loadSubmissionStep(models.StatusSubmitted),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	// Assigned to school 9, submission belongs to school 3.
	_, err := svc.Transition(&TransitionRequest{
		SubmissionID: 1,
		Event:        EventStartReview,
		Actor:        assignedReviewerCap(20, models.KindPublication, 9),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreditCompletesApprovedSubmission(t *testing.T) {
	loadStep := &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("^SELECT \\* FROM `submissions` WHERE submission_id = \\? AND delete_at IS NULL"),
		anyArgs: true,
		columns: []string{"submission_id", "user_id", "submission_kind", "status", "school_id", "calculated_amount", "calculated_points"},
		rows:    [][]driver.Value{{int64(1), int64(10), models.KindPublication, models.StatusApproved, int64(3), float64(12000), float64(20)}},
	}
	steps := []*queryStep{
		loadStep,
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("^UPDATE `submissions` SET"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("^INSERT INTO `submission_status_history`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
		reloadSubmissionStep(models.StatusCompleted),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	audited := 11500.0
	updated, err := svc.Transition(&TransitionRequest{
		SubmissionID:   1,
		Event:          EventCredit,
		Actor:          financeCap(50),
		CreditedAmount: &audited,
	})
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Fatalf("expected status completed, got %q", updated.Status)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreditRequiresFinanceRole(t *testing.T) {
	steps := []*queryStep{
		loadSubmissionStep(models.StatusApproved),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewPolicyService(db), nil)
	_, err := svc.Transition(&TransitionRequest{
		SubmissionID: 1,
		Event:        EventCredit,
		Actor:        applicantCap(10),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
