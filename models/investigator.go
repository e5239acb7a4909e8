package models

import "time"

// Investigator role types. Exactly one vocabulary applies per submission
// kind: IPR and grant submissions use the investigator vocabulary,
// publication submissions use the author vocabulary.
const (
	RoleTypePrincipalInvestigator = "principal_investigator"
	RoleTypeCoInvestigator        = "co_investigator"

	RoleTypeFirstAuthor         = "first_author"
	RoleTypeCorrespondingAuthor = "corresponding_author"
	RoleTypeCoAuthor            = "co_author"
)

// SubmissionInvestigator represents one participant credited on a
// submission. Rows are created and edited while the submission is in draft
// and are read-only after the first submit.
type SubmissionInvestigator struct {
	InvestigatorID int        `gorm:"primaryKey;column:investigator_id" json:"investigator_id"`
	SubmissionID   int        `gorm:"column:submission_id" json:"submission_id"`
	UserID         *int       `gorm:"column:user_id" json:"user_id,omitempty"`
	DisplayName    string     `gorm:"column:display_name" json:"display_name"`
	Email          string     `gorm:"column:email" json:"email"`
	RoleType       string     `gorm:"column:role_type" json:"role_type"`
	IsExternal     bool       `gorm:"column:is_external" json:"is_external"`
	DisplayOrder   int        `gorm:"column:display_order" json:"display_order"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SubmissionInvestigator) TableName() string { return "submission_investigators" }

// RoleTypesForKind returns the role vocabulary for a submission kind.
func RoleTypesForKind(kind string) []string {
	switch kind {
	case KindPublication:
		return []string{RoleTypeFirstAuthor, RoleTypeCorrespondingAuthor, RoleTypeCoAuthor}
	case KindIPR, KindGrant:
		return []string{RoleTypePrincipalInvestigator, RoleTypeCoInvestigator}
	}
	return nil
}

// ValidRoleType reports whether roleType belongs to the vocabulary of kind.
func ValidRoleType(kind, roleType string) bool {
	for _, r := range RoleTypesForKind(kind) {
		if r == roleType {
			return true
		}
	}
	return false
}
