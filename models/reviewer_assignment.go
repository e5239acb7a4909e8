package models

import "time"

// ReviewerAssignment is the department-level permission record scoping a
// reviewer to a school for one submission category. A reviewer may hold any
// number of these; head and admin roles override them.
type ReviewerAssignment struct {
	AssignmentID int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	UserID       int        `gorm:"column:user_id" json:"user_id"`
	Category     string     `gorm:"column:category" json:"category"` // submission kind
	SchoolID     int        `gorm:"column:school_id" json:"school_id"`
	AssignedBy   *int       `gorm:"column:assigned_by" json:"assigned_by,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	School *School `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

func (ReviewerAssignment) TableName() string { return "reviewer_assignments" }
