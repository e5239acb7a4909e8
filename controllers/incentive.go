package controllers

import (
	"errors"
	"net/http"
	"research-portal-api/config"
	"research-portal-api/models"
	"research-portal-api/services"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PreviewIncentive computes a read-only incentive estimate for a
// submission. Previews never lock anything and may be computed against
// stale policy data; only the approve-time calculation is authoritative.
func PreviewIncentive(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	submission, err := loadSubmissionWithDetails(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}

	if !cap.CanActFor(submission.UserID) && !cap.CanReview(submission.SubmissionKind, submission.SchoolID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this submission"})
		return
	}

	subType, err := services.PolicySubType(submission)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	policy, err := policyService.FindActivePolicy(submission.SubmissionKind, subType, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := services.CalculateIncentive(policy, submission, submission.Investigators)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"estimate":           result,
		"distributed_amount": result.DistributedAmount(),
		"distributed_points": result.DistributedPoints(),
	})
}

// GetIncentivePolicies lists policies. Admin sees all rows; everyone else
// sees only active ones.
func GetIncentivePolicies(c *gin.Context) {
	roleID, _ := currentRoleID(c)

	query := config.DB.Where("delete_at IS NULL")
	if roleID != models.RoleAdmin {
		query = query.Where("is_active = ?", true)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if subType := c.Query("sub_type"); subType != "" {
		query = query.Where("sub_type = ?", subType)
	}

	var policies []models.IncentivePolicy
	if err := query.Order("category, sub_type, effective_from DESC").Find(&policies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch policies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"policies": policies,
		"total":    len(policies),
	})
}

// LookupIncentivePolicy resolves the policy that would apply right now for
// a (category, sub_type) pair.
func LookupIncentivePolicy(c *gin.Context) {
	category := c.Query("category")
	subType := c.Query("sub_type")
	if category == "" || subType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: category, sub_type"})
		return
	}

	policy, err := policyService.FindActivePolicy(category, subType, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"policy":  policy,
	})
}

type policyRequest struct {
	Category              string     `json:"category" binding:"required"`
	SubType               string     `json:"sub_type" binding:"required"`
	BaseAmount            float64    `json:"base_amount"`
	BasePoints            float64    `json:"base_points"`
	SplitPolicy           string     `json:"split_policy" binding:"required"`
	RolePercentages       *string    `json:"role_percentages"`
	InternationalBonus    float64    `json:"international_bonus"`
	ConsortiumMemberBonus float64    `json:"consortium_member_bonus"`
	IsActive              bool       `json:"is_active"`
	EffectiveFrom         time.Time  `json:"effective_from" binding:"required"`
	EffectiveTo           *time.Time `json:"effective_to"`
}

func (r *policyRequest) validate() string {
	if !models.ValidKind(r.Category) {
		return "Invalid category"
	}
	if r.SplitPolicy != models.SplitEqual && r.SplitPolicy != models.SplitPercentageBased {
		return "split_policy must be equal or percentage_based"
	}
	if r.SplitPolicy == models.SplitPercentageBased && (r.RolePercentages == nil || *r.RolePercentages == "") {
		return "role_percentages is required for percentage_based policies"
	}
	if r.BaseAmount < 0 || r.BasePoints < 0 {
		return "Amounts must not be negative"
	}
	if r.EffectiveTo != nil && r.EffectiveTo.Before(r.EffectiveFrom) {
		return "effective_to must not precede effective_from"
	}
	return ""
}

// CreateIncentivePolicy registers a new policy version (admin only).
func CreateIncentivePolicy(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if req.RolePercentages != nil {
		probe := models.IncentivePolicy{RolePercentages: req.RolePercentages}
		if _, err := probe.RolePercentageMap(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role_percentages must be a JSON object of role to percent"})
			return
		}
	}

	policy := models.IncentivePolicy{
		Category:              req.Category,
		SubType:               req.SubType,
		BaseAmount:            req.BaseAmount,
		BasePoints:            req.BasePoints,
		SplitPolicy:           req.SplitPolicy,
		RolePercentages:       req.RolePercentages,
		InternationalBonus:    req.InternationalBonus,
		ConsortiumMemberBonus: req.ConsortiumMemberBonus,
		IsActive:              req.IsActive,
		EffectiveFrom:         req.EffectiveFrom,
		EffectiveTo:           req.EffectiveTo,
		CreateAt:              time.Now(),
	}

	if err := config.DB.Create(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create policy"})
		return
	}

	policyService.ClearCache()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"policy":  policy,
	})
}

// UpdateIncentivePolicy edits a policy row (admin only). Existing approved
// submissions keep the figures calculated at approval time.
func UpdateIncentivePolicy(c *gin.Context) {
	policyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var policy models.IncentivePolicy
	if err := config.DB.Where("policy_id = ? AND delete_at IS NULL", policyID).First(&policy).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	now := time.Now()
	policy.Category = req.Category
	policy.SubType = req.SubType
	policy.BaseAmount = req.BaseAmount
	policy.BasePoints = req.BasePoints
	policy.SplitPolicy = req.SplitPolicy
	policy.RolePercentages = req.RolePercentages
	policy.InternationalBonus = req.InternationalBonus
	policy.ConsortiumMemberBonus = req.ConsortiumMemberBonus
	policy.IsActive = req.IsActive
	policy.EffectiveFrom = req.EffectiveFrom
	policy.EffectiveTo = req.EffectiveTo
	policy.UpdateAt = &now

	if err := config.DB.Save(&policy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update policy"})
		return
	}

	policyService.ClearCache()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"policy":  policy,
	})
}

// DeleteIncentivePolicy soft-deletes a policy row (admin only).
func DeleteIncentivePolicy(c *gin.Context) {
	policyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	now := time.Now()
	res := config.DB.Model(&models.IncentivePolicy{}).
		Where("policy_id = ? AND delete_at IS NULL", policyID).
		Updates(map[string]interface{}{"delete_at": now, "is_active": false, "update_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete policy"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
		return
	}

	policyService.ClearCache()

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Policy deleted"})
}
