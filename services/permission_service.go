package services

import (
	"fmt"
	"research-portal-api/models"

	"gorm.io/gorm"
)

// Capability is the acting user's resolved permission set for one request.
// It is derived once from the role and the reviewer_assignments table so
// the workflow service never reads permission storage directly.
type Capability struct {
	UserID    int
	RoleID    int
	isAdmin   bool
	isHead    bool
	isFinance bool
	// category -> set of school IDs the user may review
	assignments map[string]map[int]bool
}

// ResolveCapability builds the capability set for userID.
func ResolveCapability(db *gorm.DB, userID int) (*Capability, error) {
	var user models.User
	if err := db.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	cap := &Capability{
		UserID:      user.UserID,
		RoleID:      user.RoleID,
		isAdmin:     user.RoleID == models.RoleAdmin,
		isHead:      user.RoleID == models.RoleDeptHead,
		isFinance:   user.RoleID == models.RoleFinance,
		assignments: make(map[string]map[int]bool),
	}

	var rows []models.ReviewerAssignment
	if err := db.Where("user_id = ? AND delete_at IS NULL", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviewer assignments for user %d: %w", userID, err)
	}
	for _, row := range rows {
		if cap.assignments[row.Category] == nil {
			cap.assignments[row.Category] = make(map[int]bool)
		}
		cap.assignments[row.Category][row.SchoolID] = true
	}

	return cap, nil
}

// IsAdmin reports whether the user holds the unscoped admin override.
func (c *Capability) IsAdmin() bool { return c.isAdmin }

// IsHead reports whether the user is the department head (final approver).
func (c *Capability) IsHead() bool { return c.isHead }

// CanReview reports whether the user may review submissions of the given
// category for the given school. Head and admin override the scoped
// assignment check.
func (c *Capability) CanReview(category string, schoolID int) bool {
	if c.isAdmin || c.isHead {
		return true
	}
	return c.assignments[category][schoolID]
}

// CanApprove reports whether the user may execute the final approve
// transition.
func (c *Capability) CanApprove() bool {
	return c.isHead || c.isAdmin
}

// CanCredit reports whether the user may confirm finance payouts.
func (c *Capability) CanCredit() bool {
	return c.isFinance || c.isAdmin
}

// AssignedSchools lists the school IDs the user may review for a category.
func (c *Capability) AssignedSchools(category string) []int {
	schools := make([]int, 0, len(c.assignments[category]))
	for schoolID := range c.assignments[category] {
		schools = append(schools, schoolID)
	}
	return schools
}

// CanActFor reports whether the user may perform applicant-side operations
// on a submission owned by ownerID.
func (c *Capability) CanActFor(ownerID int) bool {
	return c.UserID == ownerID || c.isAdmin
}
