package models

import "time"

// Submission kinds.
const (
	KindIPR         = "ipr"
	KindPublication = "publication"
	KindGrant       = "grant"
)

// Submission statuses. The workflow service owns the legal transitions
// between these; nothing else writes the status column.
const (
	StatusDraft                 = "draft"
	StatusPendingMentorApproval = "pending_mentor_approval"
	StatusSubmitted             = "submitted"
	StatusUnderReview           = "under_review"
	StatusChangesRequired       = "changes_required"
	StatusResubmitted           = "resubmitted"
	StatusRecommended           = "recommended"
	StatusApproved              = "approved"
	StatusCompleted             = "completed"
	StatusRejected              = "rejected"
	StatusCancelled             = "cancelled"
)

// Submission represents the submissions table: one row per IPR application,
// research publication, or grant application. Kind-specific payloads live in
// the per-kind detail tables (IPRDetail, PublicationDetail, GrantDetail).
type Submission struct {
	SubmissionID          int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ApplicationNumber     *string    `gorm:"column:application_number;unique" json:"application_number,omitempty"`
	UserID                int        `gorm:"column:user_id" json:"user_id"`
	SubmissionKind        string     `gorm:"column:submission_kind" json:"submission_kind"`
	Status                string     `gorm:"column:status" json:"status"`
	SchoolID              int        `gorm:"column:school_id" json:"school_id"`
	CurrentReviewerID     *int       `gorm:"column:current_reviewer_id" json:"current_reviewer_id,omitempty"`
	IsInternational       bool       `gorm:"column:is_international" json:"is_international"`
	ConsortiumMemberCount int        `gorm:"column:consortium_member_count" json:"consortium_member_count"`
	CalculatedAmount      *float64   `gorm:"column:calculated_amount" json:"calculated_amount,omitempty"`
	CalculatedPoints      *float64   `gorm:"column:calculated_points" json:"calculated_points,omitempty"`
	CreditedAmount        *float64   `gorm:"column:credited_amount" json:"credited_amount,omitempty"`
	CreditedPoints        *float64   `gorm:"column:credited_points" json:"credited_points,omitempty"`
	CreditedBy            *int       `gorm:"column:credited_by" json:"credited_by,omitempty"`
	CreditedAt            *time.Time `gorm:"column:credited_at" json:"credited_at,omitempty"`
	CreateAt              time.Time  `gorm:"column:create_at" json:"create_at"`
	SubmittedAt           *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CompletedAt           *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdateAt              *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt              *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User              *User                    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	School            *School                  `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	CurrentReviewer   *User                    `gorm:"foreignKey:CurrentReviewerID" json:"current_reviewer,omitempty"`
	Investigators     []SubmissionInvestigator `gorm:"foreignKey:SubmissionID" json:"investigators,omitempty"`
	IPRDetail         *IPRDetail               `gorm:"foreignKey:SubmissionID" json:"ipr_detail,omitempty"`
	PublicationDetail *PublicationDetail       `gorm:"foreignKey:SubmissionID" json:"publication_detail,omitempty"`
	GrantDetail       *GrantDetail             `gorm:"foreignKey:SubmissionID" json:"grant_detail,omitempty"`
}

func (Submission) TableName() string { return "submissions" }

// IsEditable reports whether the applicant may still change the payload and
// roster directly. After the first submit, payload changes flow only through
// accepted edit suggestions.
func (s *Submission) IsEditable() bool {
	return s.Status == StatusDraft
}

// IsTerminal reports whether the submission has reached a final status.
func (s *Submission) IsTerminal() bool {
	switch s.Status {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ValidKind reports whether kind is a known submission kind.
func ValidKind(kind string) bool {
	switch kind {
	case KindIPR, KindPublication, KindGrant:
		return true
	}
	return false
}
