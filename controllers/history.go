package controllers

import (
	"net/http"
	"research-portal-api/config"
	"research-portal-api/models"
	"research-portal-api/services"

	"github.com/gin-gonic/gin"
)

// GetSubmissionHistory returns the full transition history, oldest first.
func GetSubmissionHistory(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
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

	if !cap.CanActFor(submission.UserID) &&
		!cap.CanReview(submission.SubmissionKind, submission.SchoolID) &&
		!cap.CanCredit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this submission"})
		return
	}

	history, err := services.SubmissionHistory(config.DB, submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
		"total":   len(history),
	})
}
