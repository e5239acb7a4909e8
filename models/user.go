package models

import (
	"time"
)

// Role IDs as seeded in the roles table.
const (
	RoleApplicant = 1 // faculty / researcher
	RoleReviewer  = 2 // DRD reviewer
	RoleAdmin     = 3
	RoleDeptHead  = 4
	RoleFinance   = 5
)

type User struct {
	UserID           int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname        string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname        string     `gorm:"column:user_lname" json:"user_lname"`
	Email            string     `gorm:"column:email;unique" json:"email"`
	Password         string     `gorm:"column:password" json:"-"`
	RoleID           int        `gorm:"column:role_id" json:"role_id"`
	SchoolID         *int       `gorm:"column:school_id" json:"school_id,omitempty"`
	PositionName     *string    `gorm:"column:position_name" json:"position_name,omitempty"`
	DateOfEmployment *time.Time `gorm:"column:date_of_employment" json:"date_of_employment,omitempty"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role   Role    `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	School *School `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// School represents a school/faculty in the university directory.
type School struct {
	SchoolID   int        `gorm:"primaryKey;column:school_id" json:"school_id"`
	SchoolName string     `gorm:"column:school_name" json:"school_name"`
	SchoolCode string     `gorm:"column:school_code" json:"school_code"`
	IsActive   bool       `gorm:"column:is_active" json:"is_active"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (User) TableName() string   { return "users" }
func (Role) TableName() string   { return "roles" }
func (School) TableName() string { return "schools" }

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.UserFname + " " + u.UserLname
}
