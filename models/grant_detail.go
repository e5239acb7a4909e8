package models

import "time"

// Grant sub-types (incentive policy sub_type values for the grant category).
const (
	GrantTypeNational      = "national"
	GrantTypeInternational = "international"
	GrantTypeIndustry      = "industry"
)

// GrantDetail holds the kind-specific payload for grant submissions.
// MentorUserID drives the mentor gate: when set, the first submit routes the
// submission through pending_mentor_approval before it reaches the DRD queue.
type GrantDetail struct {
	DetailID       int        `gorm:"primaryKey;column:detail_id" json:"detail_id"`
	SubmissionID   int        `gorm:"column:submission_id" json:"submission_id"`
	ProjectTitle   string     `gorm:"column:project_title" json:"project_title"`
	GrantType      string     `gorm:"column:grant_type" json:"grant_type"`
	FundingAgency  string     `gorm:"column:funding_agency" json:"funding_agency"`
	BudgetAmount   float64    `gorm:"column:budget_amount" json:"budget_amount"`
	DurationMonths int        `gorm:"column:duration_months" json:"duration_months"`
	Abstract       string     `gorm:"column:abstract" json:"abstract"`
	MentorUserID   *int       `gorm:"column:mentor_user_id" json:"mentor_user_id,omitempty"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	Mentor *User `gorm:"foreignKey:MentorUserID" json:"mentor,omitempty"`
}

func (GrantDetail) TableName() string { return "grant_details" }

// ValidGrantType reports whether t is a known grant sub-type.
func ValidGrantType(t string) bool {
	switch t {
	case GrantTypeNational, GrantTypeInternational, GrantTypeIndustry:
		return true
	}
	return false
}
