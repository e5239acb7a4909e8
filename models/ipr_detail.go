package models

import "time"

// IPR sub-types (incentive policy sub_type values for the ipr category).
const (
	IPRTypePatent      = "patent"
	IPRTypePettyPatent = "petty_patent"
	IPRTypeCopyright   = "copyright"
	IPRTypeTrademark   = "trademark"
)

// IPRDetail holds the kind-specific payload for IPR submissions.
type IPRDetail struct {
	DetailID     int        `gorm:"primaryKey;column:detail_id" json:"detail_id"`
	SubmissionID int        `gorm:"column:submission_id" json:"submission_id"`
	Title        string     `gorm:"column:title" json:"title"`
	IPRType      string     `gorm:"column:ipr_type" json:"ipr_type"`
	Description  string     `gorm:"column:description" json:"description"`
	FilingNumber string     `gorm:"column:filing_number" json:"filing_number"`
	FilingDate   *time.Time `gorm:"column:filing_date" json:"filing_date,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (IPRDetail) TableName() string { return "ipr_details" }

// ValidIPRType reports whether t is a known IPR sub-type.
func ValidIPRType(t string) bool {
	switch t {
	case IPRTypePatent, IPRTypePettyPatent, IPRTypeCopyright, IPRTypeTrademark:
		return true
	}
	return false
}
