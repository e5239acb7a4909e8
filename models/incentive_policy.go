package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Split policies.
const (
	SplitEqual           = "equal"
	SplitPercentageBased = "percentage_based"
)

// IncentivePolicy is a versioned, effective-dated incentive rule for a
// (category, sub_type) pair. Policies are read-only from the engine's
// perspective; administrators manage them through the policy endpoints.
type IncentivePolicy struct {
	PolicyID              int        `gorm:"primaryKey;column:policy_id" json:"policy_id"`
	Category              string     `gorm:"column:category" json:"category"` // submission kind
	SubType               string     `gorm:"column:sub_type" json:"sub_type"`
	BaseAmount            float64    `gorm:"column:base_amount" json:"base_amount"`
	BasePoints            float64    `gorm:"column:base_points" json:"base_points"`
	SplitPolicy           string     `gorm:"column:split_policy" json:"split_policy"`
	RolePercentages       *string    `gorm:"column:role_percentages" json:"role_percentages,omitempty"` // JSON map role_type -> percent
	InternationalBonus    float64    `gorm:"column:international_bonus" json:"international_bonus"`
	ConsortiumMemberBonus float64    `gorm:"column:consortium_member_bonus" json:"consortium_member_bonus"`
	IsActive              bool       `gorm:"column:is_active" json:"is_active"`
	EffectiveFrom         time.Time  `gorm:"column:effective_from" json:"effective_from"`
	EffectiveTo           *time.Time `gorm:"column:effective_to" json:"effective_to,omitempty"`
	CreateAt              time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt              *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt              *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (IncentivePolicy) TableName() string { return "incentive_policies" }

// RolePercentageMap decodes the role_percentages JSON column.
func (p *IncentivePolicy) RolePercentageMap() (map[string]float64, error) {
	if p.RolePercentages == nil || *p.RolePercentages == "" {
		return map[string]float64{}, nil
	}
	out := make(map[string]float64)
	if err := json.Unmarshal([]byte(*p.RolePercentages), &out); err != nil {
		return nil, fmt.Errorf("invalid role_percentages for policy %d: %w", p.PolicyID, err)
	}
	return out, nil
}

// CoversTime reports whether the policy's effective window contains t.
func (p *IncentivePolicy) CoversTime(t time.Time) bool {
	if t.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && t.After(*p.EffectiveTo) {
		return false
	}
	return true
}

// SubmissionIncentiveShare is the persisted per-investigator split written
// by the authoritative approve-time calculation. Preview calculations never
// write these rows.
type SubmissionIncentiveShare struct {
	ShareID        int       `gorm:"primaryKey;column:share_id" json:"share_id"`
	SubmissionID   int       `gorm:"column:submission_id" json:"submission_id"`
	InvestigatorID int       `gorm:"column:investigator_id" json:"investigator_id"`
	PolicyID       int       `gorm:"column:policy_id" json:"policy_id"`
	Amount         float64   `gorm:"column:amount" json:"amount"`
	Points         float64   `gorm:"column:points" json:"points"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`

	Investigator *SubmissionInvestigator `gorm:"foreignKey:InvestigatorID" json:"investigator,omitempty"`
}

func (SubmissionIncentiveShare) TableName() string { return "submission_incentive_shares" }
