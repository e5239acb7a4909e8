package controllers

import (
	"errors"
	"net/http"
	"research-portal-api/config"
	"research-portal-api/models"
	"research-portal-api/services"
	"research-portal-api/utils"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateSubmissionRequest opens a new draft. Exactly one of the detail
// payloads must match the kind.
type CreateSubmissionRequest struct {
	SubmissionKind        string `json:"submission_kind" binding:"required"`
	SchoolID              int    `json:"school_id" binding:"required"`
	IsInternational       bool   `json:"is_international"`
	ConsortiumMemberCount int    `json:"consortium_member_count"`

	IPRDetail         *IPRDetailPayload         `json:"ipr_detail"`
	PublicationDetail *PublicationDetailPayload `json:"publication_detail"`
	GrantDetail       *GrantDetailPayload       `json:"grant_detail"`
}

type IPRDetailPayload struct {
	Title        string `json:"title" binding:"required"`
	IPRType      string `json:"ipr_type" binding:"required"`
	Description  string `json:"description"`
	FilingNumber string `json:"filing_number"`
}

type PublicationDetailPayload struct {
	ArticleTitle    string `json:"article_title" binding:"required"`
	JournalName     string `json:"journal_name" binding:"required"`
	JournalQuartile string `json:"journal_quartile" binding:"required"`
	Doi             string `json:"doi"`
	VolumeIssue     string `json:"volume_issue"`
	PageNumbers     string `json:"page_numbers"`
	PublicationYear int    `json:"publication_year"`
}

type GrantDetailPayload struct {
	ProjectTitle   string  `json:"project_title" binding:"required"`
	GrantType      string  `json:"grant_type" binding:"required"`
	FundingAgency  string  `json:"funding_agency"`
	BudgetAmount   float64 `json:"budget_amount"`
	DurationMonths int     `json:"duration_months"`
	Abstract       string  `json:"abstract"`
	MentorUserID   *int    `json:"mentor_user_id"`
}

// CreateSubmission opens a draft submission owned by the caller. The
// applicant is seeded onto the roster as the first internal participant.
func CreateSubmission(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidKind(req.SubmissionKind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission kind"})
		return
	}

	switch req.SubmissionKind {
	case models.KindIPR:
		if req.IPRDetail == nil || !models.ValidIPRType(req.IPRDetail.IPRType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valid ipr_detail is required"})
			return
		}
	case models.KindPublication:
		if req.PublicationDetail == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "publication_detail is required"})
			return
		}
	case models.KindGrant:
		if req.GrantDetail == nil || !models.ValidGrantType(req.GrantDetail.GrantType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valid grant_detail is required"})
			return
		}
	}

	var applicant models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", userID).First(&applicant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load applicant"})
		return
	}

	now := time.Now()
	submission := models.Submission{
		UserID:                userID,
		SubmissionKind:        req.SubmissionKind,
		Status:                models.StatusDraft,
		SchoolID:              req.SchoolID,
		IsInternational:       req.IsInternational,
		ConsortiumMemberCount: req.ConsortiumMemberCount,
		CreateAt:              now,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&submission).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	var detailErr error
	switch req.SubmissionKind {
	case models.KindIPR:
		detailErr = tx.Create(&models.IPRDetail{
			SubmissionID: submission.SubmissionID,
			Title:        utils.SanitizeInput(req.IPRDetail.Title),
			IPRType:      req.IPRDetail.IPRType,
			Description:  utils.SanitizeInput(req.IPRDetail.Description),
			FilingNumber: utils.SanitizeInput(req.IPRDetail.FilingNumber),
			CreateAt:     now,
		}).Error
	case models.KindPublication:
		detailErr = tx.Create(&models.PublicationDetail{
			SubmissionID:    submission.SubmissionID,
			ArticleTitle:    utils.SanitizeInput(req.PublicationDetail.ArticleTitle),
			JournalName:     utils.SanitizeInput(req.PublicationDetail.JournalName),
			JournalQuartile: req.PublicationDetail.JournalQuartile,
			Doi:             utils.SanitizeInput(req.PublicationDetail.Doi),
			VolumeIssue:     utils.SanitizeInput(req.PublicationDetail.VolumeIssue),
			PageNumbers:     utils.SanitizeInput(req.PublicationDetail.PageNumbers),
			PublicationYear: req.PublicationDetail.PublicationYear,
			CreateAt:        now,
		}).Error
	case models.KindGrant:
		detailErr = tx.Create(&models.GrantDetail{
			SubmissionID:   submission.SubmissionID,
			ProjectTitle:   utils.SanitizeInput(req.GrantDetail.ProjectTitle),
			GrantType:      req.GrantDetail.GrantType,
			FundingAgency:  utils.SanitizeInput(req.GrantDetail.FundingAgency),
			BudgetAmount:   req.GrantDetail.BudgetAmount,
			DurationMonths: req.GrantDetail.DurationMonths,
			Abstract:       utils.SanitizeInput(req.GrantDetail.Abstract),
			MentorUserID:   req.GrantDetail.MentorUserID,
			CreateAt:       now,
		}).Error
	}
	if detailErr != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission detail"})
		return
	}

	// The applicant always opens the roster as an internal participant.
	applicantRole := models.RoleTypePrincipalInvestigator
	if req.SubmissionKind == models.KindPublication {
		applicantRole = models.RoleTypeFirstAuthor
	}
	seed := models.SubmissionInvestigator{
		SubmissionID: submission.SubmissionID,
		UserID:       &applicant.UserID,
		DisplayName:  applicant.FullName(),
		Email:        applicant.Email,
		RoleType:     applicantRole,
		IsExternal:   false,
		DisplayOrder: 1,
		CreateAt:     now,
	}
	if err := tx.Create(&seed).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create investigator"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	loaded, err := loadSubmissionWithDetails(submission.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload submission"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": loaded,
	})
}

// GetSubmissions lists submissions visible to the caller: applicants see
// their own, reviewers see submissions in their assigned scope, head,
// finance and admin see all.
func GetSubmissions(c *gin.Context) {
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	query := config.DB.Preload("User").
		Preload("School").
		Preload("CurrentReviewer").
		Where("delete_at IS NULL")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("submission_kind = ?", kind)
	}

	roleID, _ := currentRoleID(c)
	switch {
	case cap.IsAdmin() || cap.IsHead() || cap.CanCredit():
		// unscoped
	case roleID == models.RoleReviewer:
		scopes := reviewerScopeConditions(cap)
		if len(scopes) == 0 {
			query = query.Where("user_id = ?", cap.UserID)
		} else {
			query = query.Where(scopes)
		}
	default:
		query = query.Where("user_id = ?", cap.UserID)
	}

	var submissions []models.Submission
	if err := query.Order("create_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// reviewerScopeConditions builds the (kind, school) visibility filter for a
// scoped reviewer.
func reviewerScopeConditions(cap *services.Capability) *gorm.DB {
	var scoped *gorm.DB
	for _, kind := range []string{models.KindIPR, models.KindPublication, models.KindGrant} {
		for _, schoolID := range cap.AssignedSchools(kind) {
			cond := config.DB.Where("submission_kind = ? AND school_id = ?", kind, schoolID)
			if scoped == nil {
				scoped = cond
			} else {
				scoped = scoped.Or(cond)
			}
		}
	}
	if scoped == nil {
		return nil
	}
	// Reviewers also always see their own submissions.
	return scoped.Or(config.DB.Where("user_id = ?", cap.UserID))
}

// GetSubmission returns one submission with its payload, roster and shares.
func GetSubmission(c *gin.Context) {
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

	if !cap.CanActFor(submission.UserID) &&
		!cap.CanReview(submission.SubmissionKind, submission.SchoolID) &&
		!cap.CanCredit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this submission"})
		return
	}

	var shares []models.SubmissionIncentiveShare
	config.DB.Preload("Investigator").
		Where("submission_id = ?", submissionID).
		Find(&shares)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
		"shares":     shares,
	})
}

// UpdateSubmissionDetail lets the applicant edit the draft payload. After
// the first submit, payload changes flow only through accepted suggestions.
func UpdateSubmissionDetail(c *gin.Context) {
	submissionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cap, ok := resolveCapability(c)
	if !ok {
		return
	}

	var req struct {
		Fields map[string]string `json:"fields" binding:"required"`
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the applicant may edit this submission"})
		return
	}
	if !submission.IsEditable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Submission is no longer editable"})
		return
	}

	fields, err := services.LoadSubmissionFields(config.DB, &submission)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for name, value := range req.Fields {
		if err := services.ApplyFieldValue(fields, name, value); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	now := time.Now()
	var saveErr error
	switch {
	case fields.IPR != nil:
		fields.IPR.UpdateAt = &now
		saveErr = config.DB.Save(fields.IPR).Error
	case fields.Publication != nil:
		fields.Publication.UpdateAt = &now
		saveErr = config.DB.Save(fields.Publication).Error
	case fields.Grant != nil:
		fields.Grant.UpdateAt = &now
		saveErr = config.DB.Save(fields.Grant).Error
	}
	if saveErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save submission detail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteSubmission soft-deletes a draft. Anything past draft must go
// through cancel or reject instead.
func DeleteSubmission(c *gin.Context) {
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

	if !cap.CanActFor(submission.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the applicant may delete this submission"})
		return
	}
	if submission.Status != models.StatusDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only draft submissions can be deleted"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", submissionID, models.StatusDraft).
		Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission deleted"})
}

func loadSubmissionWithDetails(submissionID int) (*models.Submission, error) {
	var submission models.Submission
	err := config.DB.
		Preload("User").
		Preload("School").
		Preload("CurrentReviewer").
		Preload("Investigators", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("IPRDetail").
		Preload("PublicationDetail").
		Preload("GrantDetail").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}
