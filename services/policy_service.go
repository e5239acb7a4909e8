package services

import (
	"fmt"
	"research-portal-api/models"
	"sync"
	"time"

	"gorm.io/gorm"
)

// PolicyService resolves incentive policies by (category, sub_type,
// point-in-time). Reads for previews go through a short-lived cache;
// the authoritative approve-time lookup bypasses the cache and reads
// inside the caller's transaction.
type PolicyService struct {
	db *gorm.DB

	mu        sync.RWMutex
	cache     []models.IncentivePolicy
	fetchedAt time.Time
	ttl       time.Duration
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db, ttl: 5 * time.Minute}
}

func (s *PolicyService) loadPolicies(force bool) ([]models.IncentivePolicy, error) {
	s.mu.RLock()
	cached := s.cache
	fetchedAt := s.fetchedAt
	s.mu.RUnlock()

	if cached != nil && !force && time.Since(fetchedAt) < s.ttl {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && !force && time.Since(s.fetchedAt) < s.ttl {
		return s.cache, nil
	}

	var rows []models.IncentivePolicy
	if err := s.db.Where("is_active = ? AND delete_at IS NULL", true).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load incentive policies: %w", err)
	}

	s.cache = rows
	s.fetchedAt = time.Now()
	return rows, nil
}

// ClearCache invalidates the in-memory policy cache.
func (s *PolicyService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// FindActivePolicy returns the most recent active policy for the given
// category and sub-type whose effective window contains at. Used for
// read-only previews; may observe data up to the cache TTL stale.
func (s *PolicyService) FindActivePolicy(category, subType string, at time.Time) (*models.IncentivePolicy, error) {
	rows, err := s.loadPolicies(false)
	if err != nil {
		return nil, err
	}

	if p := pickPolicy(rows, category, subType, at); p != nil {
		return p, nil
	}

	// Force refresh cache once before giving up
	rows, err = s.loadPolicies(true)
	if err != nil {
		return nil, err
	}

	if p := pickPolicy(rows, category, subType, at); p != nil {
		return p, nil
	}

	return nil, fmt.Errorf("%w: category=%s sub_type=%s", ErrPolicyNotFound, category, subType)
}

// FindActivePolicyTx resolves the policy directly against tx, bypassing the
// cache. The approve transition uses this so the persisted incentive figure
// is read in the same transaction as the status write.
func (s *PolicyService) FindActivePolicyTx(tx *gorm.DB, category, subType string, at time.Time) (*models.IncentivePolicy, error) {
	var rows []models.IncentivePolicy
	err := tx.
		Where("category = ? AND sub_type = ? AND is_active = ? AND delete_at IS NULL", category, subType, true).
		Where("effective_from <= ?", at).
		Where("effective_to IS NULL OR effective_to >= ?", at).
		Order("effective_from DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up incentive policy: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: category=%s sub_type=%s", ErrPolicyNotFound, category, subType)
	}
	return &rows[0], nil
}

// pickPolicy selects the covering policy with the latest effective_from.
func pickPolicy(rows []models.IncentivePolicy, category, subType string, at time.Time) *models.IncentivePolicy {
	var best *models.IncentivePolicy
	for i := range rows {
		p := &rows[i]
		if p.Category != category || p.SubType != subType {
			continue
		}
		if !p.CoversTime(at) {
			continue
		}
		if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// PolicySubType derives the policy sub_type for a submission from its
// kind-specific detail.
func PolicySubType(submission *models.Submission) (string, error) {
	switch submission.SubmissionKind {
	case models.KindIPR:
		if submission.IPRDetail == nil {
			return "", fmt.Errorf("%w: submission %d has no IPR detail", ErrValidation, submission.SubmissionID)
		}
		return submission.IPRDetail.IPRType, nil
	case models.KindPublication:
		if submission.PublicationDetail == nil {
			return "", fmt.Errorf("%w: submission %d has no publication detail", ErrValidation, submission.SubmissionID)
		}
		return submission.PublicationDetail.JournalQuartile, nil
	case models.KindGrant:
		if submission.GrantDetail == nil {
			return "", fmt.Errorf("%w: submission %d has no grant detail", ErrValidation, submission.SubmissionID)
		}
		return submission.GrantDetail.GrantType, nil
	}
	return "", fmt.Errorf("%w: unknown submission kind %q", ErrValidation, submission.SubmissionKind)
}
