// controllers/investigator.go - Investigator/Author roster management
package controllers

import (
	"net/http"
	"research-portal-api/config"
	"research-portal-api/models"
	"research-portal-api/utils"
	"time"

	"github.com/gin-gonic/gin"
)

// AddInvestigator adds a participant to a draft submission's roster.
func AddInvestigator(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	type AddInvestigatorRequest struct {
		UserID       *int   `json:"user_id"`
		DisplayName  string `json:"display_name" binding:"required"`
		Email        string `json:"email"`
		RoleType     string `json:"role_type" binding:"required"`
		IsExternal   bool   `json:"is_external"`
		DisplayOrder int    `json:"display_order"`
	}

	var req AddInvestigatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}

	var submission models.Submission
	if err := config.DB.Where("submission_id = ? AND delete_at IS NULL", submissionID).First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if !cap.CanActFor(submission.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the applicant may edit the roster"})
		return
	}

	// Roster locks at first submit.
	if !submission.IsEditable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot modify the roster of a submitted submission"})
		return
	}

	if !models.ValidRoleType(submission.SubmissionKind, req.RoleType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role type for this submission kind"})
		return
	}

	// Linked internal users must exist.
	if req.UserID != nil {
		var linked models.User
		if err := config.DB.Where("user_id = ? AND delete_at IS NULL", *req.UserID).First(&linked).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Linked user not found"})
			return
		}

		var existing models.SubmissionInvestigator
		if err := config.DB.Where("submission_id = ? AND user_id = ?", submissionID, *req.UserID).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User is already on the roster"})
			return
		}
	}

	order := req.DisplayOrder
	if order <= 0 {
		var count int64
		config.DB.Model(&models.SubmissionInvestigator{}).Where("submission_id = ?", submissionID).Count(&count)
		order = int(count) + 1
	}

	investigator := models.SubmissionInvestigator{
		SubmissionID: submissionID,
		UserID:       req.UserID,
		DisplayName:  utils.SanitizeInput(req.DisplayName),
		Email:        utils.SanitizeInput(req.Email),
		RoleType:     req.RoleType,
		IsExternal:   req.IsExternal,
		DisplayOrder: order,
		CreateAt:     time.Now(),
	}

	if err := config.DB.Create(&investigator).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add investigator"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"investigator": investigator,
	})
}

// UpdateInvestigator edits a roster entry while the submission is a draft.
func UpdateInvestigator(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	investigatorID, ok := idParam(c, "investigator_id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName  *string `json:"display_name"`
		Email        *string `json:"email"`
		RoleType     *string `json:"role_type"`
		IsExternal   *bool   `json:"is_external"`
		DisplayOrder *int    `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var submission models.Submission
	if err := config.DB.Where("submission_id = ? AND delete_at IS NULL", submissionID).First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}
	if !cap.CanActFor(submission.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the applicant may edit the roster"})
		return
	}
	if !submission.IsEditable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot modify the roster of a submitted submission"})
		return
	}

	var investigator models.SubmissionInvestigator
	if err := config.DB.Where("investigator_id = ? AND submission_id = ?", investigatorID, submissionID).First(&investigator).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Investigator not found"})
		return
	}

	if req.DisplayName != nil {
		investigator.DisplayName = utils.SanitizeInput(*req.DisplayName)
	}
	if req.Email != nil {
		if *req.Email != "" && !utils.ValidateEmail(*req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
			return
		}
		investigator.Email = utils.SanitizeInput(*req.Email)
	}
	if req.RoleType != nil {
		if !models.ValidRoleType(submission.SubmissionKind, *req.RoleType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role type for this submission kind"})
			return
		}
		investigator.RoleType = *req.RoleType
	}
	if req.IsExternal != nil {
		investigator.IsExternal = *req.IsExternal
	}
	if req.DisplayOrder != nil && *req.DisplayOrder > 0 {
		investigator.DisplayOrder = *req.DisplayOrder
	}

	now := time.Now()
	investigator.UpdateAt = &now

	if err := config.DB.Save(&investigator).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update investigator"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"investigator": investigator,
	})
}

// RemoveInvestigator removes a roster entry from a draft. The applicant's
// own entry cannot be removed.
func RemoveInvestigator(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	investigatorID, ok := idParam(c, "investigator_id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var submission models.Submission
	if err := config.DB.Where("submission_id = ? AND delete_at IS NULL", submissionID).First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}
	if !cap.CanActFor(submission.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the applicant may edit the roster"})
		return
	}
	if !submission.IsEditable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot modify the roster of a submitted submission"})
		return
	}

	var investigator models.SubmissionInvestigator
	if err := config.DB.Where("investigator_id = ? AND submission_id = ?", investigatorID, submissionID).First(&investigator).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Investigator not found"})
		return
	}

	if investigator.UserID != nil && *investigator.UserID == submission.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The applicant cannot be removed from the roster"})
		return
	}

	if err := config.DB.Delete(&investigator).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove investigator"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Investigator removed"})
}
