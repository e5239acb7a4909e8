package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"research-portal-api/models"
)

var policyColumns = []string{
	"policy_id", "category", "sub_type", "base_amount", "base_points",
	"split_policy", "is_active", "effective_from",
}

func policyRow(id int64, category, subType string, from time.Time) []driver.Value {
	return []driver.Value{id, category, subType, float64(10000), float64(10), models.SplitEqual, true, from}
}

func TestPickPolicyLatestEffectiveWins(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)

	rows := []models.IncentivePolicy{
		{PolicyID: 1, Category: models.KindPublication, SubType: "Q1", IsActive: true, EffectiveFrom: jan},
		{PolicyID: 2, Category: models.KindPublication, SubType: "Q1", IsActive: true, EffectiveFrom: jun},
		{PolicyID: 3, Category: models.KindPublication, SubType: "Q2", IsActive: true, EffectiveFrom: jun},
		{PolicyID: 4, Category: models.KindIPR, SubType: "patent", IsActive: true, EffectiveFrom: jan, EffectiveTo: &may},
	}

	got := pickPolicy(rows, models.KindPublication, "Q1", jun.AddDate(0, 1, 0))
	if got == nil || got.PolicyID != 2 {
		t.Fatalf("expected policy 2 (latest effective), got %+v", got)
	}

	// Before the newer version takes effect, the older one still applies.
	got = pickPolicy(rows, models.KindPublication, "Q1", may)
	if got == nil || got.PolicyID != 1 {
		t.Fatalf("expected policy 1, got %+v", got)
	}

	// Expired window.
	if got = pickPolicy(rows, models.KindIPR, "patent", jun); got != nil {
		t.Fatalf("expected no policy after effective_to, got %+v", got)
	}

	// No match for the sub-type.
	if got = pickPolicy(rows, models.KindPublication, "Q4", jun); got != nil {
		t.Fatalf("expected no policy for Q4, got %+v", got)
	}
}

func TestFindActivePolicyCachesAcrossLookups(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("^SELECT \\* FROM `incentive_policies` WHERE is_active = \\?"),
			anyArgs: true,
			columns: policyColumns,
			rows:    [][]driver.Value{policyRow(1, models.KindPublication, "Q1", jan)},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPolicyService(db)
	at := jan.AddDate(0, 3, 0)

	// Two lookups, one database read.
	for i := 0; i < 2; i++ {
		policy, err := svc.FindActivePolicy(models.KindPublication, "Q1", at)
		if err != nil {
			t.Fatalf("FindActivePolicy returned error: %v", err)
		}
		if policy.PolicyID != 1 {
			t.Fatalf("expected policy 1, got %d", policy.PolicyID)
		}
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindActivePolicyRefreshesBeforeGivingUp(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loadPattern := regexp.MustCompile("^SELECT \\* FROM `incentive_policies` WHERE is_active = \\?")
	steps := []*queryStep{
		{kind: kindQuery, pattern: loadPattern, anyArgs: true, columns: policyColumns},
		// Force refresh picks up a policy activated since the cache fill.
		{
			kind:    kindQuery,
			pattern: loadPattern,
			anyArgs: true,
			columns: policyColumns,
			rows:    [][]driver.Value{policyRow(9, models.KindGrant, models.GrantTypeNational, jan)},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPolicyService(db)
	policy, err := svc.FindActivePolicy(models.KindGrant, models.GrantTypeNational, jan.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("FindActivePolicy returned error: %v", err)
	}
	if policy.PolicyID != 9 {
		t.Fatalf("expected policy 9, got %d", policy.PolicyID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindActivePolicyNotFound(t *testing.T) {
	loadPattern := regexp.MustCompile("^SELECT \\* FROM `incentive_policies` WHERE is_active = \\?")
	steps := []*queryStep{
		{kind: kindQuery, pattern: loadPattern, anyArgs: true, columns: policyColumns},
		{kind: kindQuery, pattern: loadPattern, anyArgs: true, columns: policyColumns},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPolicyService(db)
	_, err := svc.FindActivePolicy(models.KindPublication, "Q1", time.Now())
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindActivePolicyTxBypassesCache(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("^SELECT \\* FROM `incentive_policies` WHERE"),
			anyArgs: true,
			columns: policyColumns,
			rows:    [][]driver.Value{policyRow(3, models.KindIPR, "patent", jan)},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPolicyService(db)
	policy, err := svc.FindActivePolicyTx(db, models.KindIPR, "patent", jan.AddDate(0, 2, 0))
	if err != nil {
		t.Fatalf("FindActivePolicyTx returned error: %v", err)
	}
	if policy.PolicyID != 3 {
		t.Fatalf("expected policy 3, got %d", policy.PolicyID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPolicySubTypePerKind(t *testing.T) {
	ipr := &models.Submission{SubmissionKind: models.KindIPR, IPRDetail: &models.IPRDetail{IPRType: "patent"}}
	pub := &models.Submission{SubmissionKind: models.KindPublication, PublicationDetail: &models.PublicationDetail{JournalQuartile: "Q1"}}
	grant := &models.Submission{SubmissionKind: models.KindGrant, GrantDetail: &models.GrantDetail{GrantType: models.GrantTypeNational}}

	cases := []struct {
		submission *models.Submission
		want       string
	}{
		{ipr, "patent"},
		{pub, "Q1"},
		{grant, models.GrantTypeNational},
	}
	for _, tc := range cases {
		got, err := PolicySubType(tc.submission)
		if err != nil {
			t.Fatalf("PolicySubType returned error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}

	if _, err := PolicySubType(&models.Submission{SubmissionKind: models.KindIPR}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing detail must fail, got %v", err)
	}
}
