package controllers

import (
	"net/http"
	"research-portal-api/config"
	"research-portal-api/services"

	"github.com/gin-gonic/gin"
)

// workflowServices wires the engine once at route setup.
var (
	policyService       *services.PolicyService
	workflowService     *services.WorkflowService
	suggestionService   *services.SuggestionService
	notificationService *services.NotificationService
)

// InitWorkflowServices constructs the engine services against the global DB.
// Called once from route setup after config.InitDB.
func InitWorkflowServices() {
	policyService = services.NewPolicyService(config.DB)
	notificationService = services.NewNotificationService(config.DB)
	workflowService = services.NewWorkflowService(config.DB, policyService, notificationService)
	suggestionService = services.NewSuggestionService(config.DB, notificationService)
}

type transitionRequestBody struct {
	Comment        string   `json:"comment"`
	CreditedAmount *float64 `json:"credited_amount"`
	CreditedPoints *float64 `json:"credited_points"`
}

// runTransition executes one workflow event for the :id submission.
func runTransition(c *gin.Context, event services.Event) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var body transitionRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	submission, err := workflowService.Transition(&services.TransitionRequest{
		SubmissionID:   submissionID,
		Event:          event,
		Actor:          cap,
		Comment:        body.Comment,
		CreditedAmount: body.CreditedAmount,
		CreditedPoints: body.CreditedPoints,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// SubmitSubmission moves a draft into the review pipeline, assigning the
// application number on first submit.
func SubmitSubmission(c *gin.Context) { runTransition(c, services.EventSubmit) }

// MentorApproveSubmission clears the mentor gate on a grant submission.
func MentorApproveSubmission(c *gin.Context) { runTransition(c, services.EventMentorApprove) }

// StartReview claims a submitted submission for the acting reviewer.
func StartReview(c *gin.Context) { runTransition(c, services.EventStartReview) }

// RecommendSubmission records a non-final reviewer recommendation.
func RecommendSubmission(c *gin.Context) { runTransition(c, services.EventRecommend) }

// ApproveSubmission executes the final approval, computing and persisting
// the authoritative incentive figures.
func ApproveSubmission(c *gin.Context) { runTransition(c, services.EventApprove) }

// RejectSubmission terminates a submission from any review state.
func RejectSubmission(c *gin.Context) { runTransition(c, services.EventReject) }

// CreditSubmission records the finance payout and completes the submission.
func CreditSubmission(c *gin.Context) { runTransition(c, services.EventCredit) }

// CancelSubmission cancels a draft.
func CancelSubmission(c *gin.Context) { runTransition(c, services.EventCancel) }

// ResubmitSubmission returns a changes_required submission to the review
// queue. Fails while any suggestion is still pending.
func ResubmitSubmission(c *gin.Context) { runTransition(c, services.EventResubmit) }

// RequestChanges records a batch of edit suggestions and moves the
// submission to changes_required in one atomic step.
func RequestChanges(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var req struct {
		Suggestions    []services.ProposeInput `json:"suggestions" binding:"required"`
		OverallComment string                  `json:"overall_comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := suggestionService.BatchPropose(submissionID, cap, req.Suggestions, req.OverallComment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}
