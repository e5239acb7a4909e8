package models

import "time"

// PublicationDetail holds the kind-specific payload for research publication
// submissions. The journal quartile doubles as the incentive policy sub_type
// for the publication category.
type PublicationDetail struct {
	DetailID        int        `gorm:"primaryKey;column:detail_id" json:"detail_id"`
	SubmissionID    int        `gorm:"column:submission_id" json:"submission_id"`
	ArticleTitle    string     `gorm:"column:article_title" json:"article_title"`
	JournalName     string     `gorm:"column:journal_name" json:"journal_name"`
	JournalQuartile string     `gorm:"column:journal_quartile" json:"journal_quartile"`
	Doi             string     `gorm:"column:doi" json:"doi"`
	VolumeIssue     string     `gorm:"column:volume_issue" json:"volume_issue"`
	PageNumbers     string     `gorm:"column:page_numbers" json:"page_numbers"`
	PublicationYear int        `gorm:"column:publication_year" json:"publication_year"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (PublicationDetail) TableName() string { return "publication_details" }
