package services

import (
	"testing"

	"research-portal-api/models"
)

func TestReviewerScopeIsPerCategoryAndSchool(t *testing.T) {
	cap := assignedReviewerCap(20, models.KindPublication, 3)

	if !cap.CanReview(models.KindPublication, 3) {
		t.Fatal("assigned category and school must be reviewable")
	}
	if cap.CanReview(models.KindPublication, 4) {
		t.Fatal("unassigned school must not be reviewable")
	}
	if cap.CanReview(models.KindIPR, 3) {
		t.Fatal("unassigned category must not be reviewable")
	}
	if cap.CanApprove() || cap.CanCredit() {
		t.Fatal("a scoped reviewer has no approve or credit authority")
	}
}

func TestHeadAndAdminOverrideScopedAssignments(t *testing.T) {
	head := &Capability{UserID: 40, RoleID: models.RoleDeptHead, isHead: true}
	admin := &Capability{UserID: 30, RoleID: models.RoleAdmin, isAdmin: true}

	for _, cap := range []*Capability{head, admin} {
		if !cap.CanReview(models.KindGrant, 99) {
			t.Fatalf("role %d must review any school", cap.RoleID)
		}
		if !cap.CanApprove() {
			t.Fatalf("role %d must hold approve authority", cap.RoleID)
		}
	}

	if head.CanCredit() {
		t.Fatal("the department head must not credit payouts")
	}
	if !admin.CanCredit() {
		t.Fatal("admin overrides the finance gate")
	}
	if !admin.CanActFor(10) {
		t.Fatal("admin may act for any applicant")
	}
	if head.CanActFor(10) {
		t.Fatal("the head may not act for an applicant")
	}
}

func TestFinanceHasOnlyCreditAuthority(t *testing.T) {
	cap := financeCap(50)

	if !cap.CanCredit() {
		t.Fatal("finance must credit payouts")
	}
	if cap.CanApprove() || cap.CanReview(models.KindPublication, 3) {
		t.Fatal("finance has no review or approve authority")
	}
}

func TestAssignedSchools(t *testing.T) {
	cap := &Capability{
		UserID: 20,
		RoleID: models.RoleReviewer,
		assignments: map[string]map[int]bool{
			models.KindPublication: {3: true, 5: true},
		},
	}

	schools := cap.AssignedSchools(models.KindPublication)
	if len(schools) != 2 {
		t.Fatalf("expected 2 schools, got %v", schools)
	}
	if got := cap.AssignedSchools(models.KindGrant); len(got) != 0 {
		t.Fatalf("expected no grant schools, got %v", got)
	}
}
