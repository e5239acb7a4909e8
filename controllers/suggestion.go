package controllers

import (
	"net/http"
	"research-portal-api/config"
	"research-portal-api/services"

	"github.com/gin-gonic/gin"
)

// ProposeSuggestion records a single reviewer suggestion outside of a full
// request-changes batch.
func ProposeSuggestion(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var req services.ProposeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, err := suggestionService.Propose(submissionID, cap, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"suggestion": suggestion,
	})
}

// GetSuggestions lists all suggestions for a submission, newest first.
func GetSuggestions(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	suggestions, err := suggestionService.ListSuggestions(submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"suggestions": suggestions,
		"total":       len(suggestions),
	})
}

// GetPendingSuggestionCount returns the resubmit-guard counter.
func GetPendingSuggestionCount(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	count, err := services.CountPendingSuggestions(config.DB, submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pending": count,
	})
}

// RespondSuggestion resolves one suggestion as the applicant.
func RespondSuggestion(c *gin.Context) {
	suggestionID, ok := idParam(c, "suggestion_id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var req struct {
		Action       string `json:"action" binding:"required"`
		ResponseNote string `json:"response_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, err := suggestionService.Respond(suggestionID, cap, req.Action, req.ResponseNote)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"suggestion": suggestion,
	})
}

// BatchRespondSuggestions resolves several suggestions in one call. Items
// are independent: one failure does not roll back the rest, and each item's
// outcome is reported.
func BatchRespondSuggestions(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var req struct {
		Responses []services.RespondInput `json:"responses" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := suggestionService.BatchRespond(submissionID, cap, req.Responses)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}
