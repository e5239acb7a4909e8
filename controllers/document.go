// controllers/document.go - Attachment reference management. The workflow
// engine treats attachments as opaque: only paths and metadata are stored,
// content is never inspected.
package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"research-portal-api/config"
	"research-portal-api/models"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadDocument stores an attachment for a draft or in-review submission
// and records its reference.
func UploadDocument(c *gin.Context) {
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
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the applicant may attach documents"})
		return
	}
	if submission.IsTerminal() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot attach documents to a closed submission"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}

	storedName := uuid.NewString() + filepath.Ext(file.Filename)
	storedPath := filepath.Join(uploadPath, storedName)

	record := models.FileUpload{
		SubmissionID: submissionID,
		OriginalName: file.Filename,
		StoredPath:   storedPath,
		FileSize:     file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		UploadedBy:   cap.UserID,
		UploadedAt:   time.Now(),
		CreateAt:     time.Now(),
	}

	if !record.IsValidDocumentType() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported document type"})
		return
	}

	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	if err := config.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record attachment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"document": record,
	})
}

// GetDocuments lists a submission's attachment references.
func GetDocuments(c *gin.Context) {
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
	if !cap.CanActFor(submission.UserID) && !cap.CanReview(submission.SubmissionKind, submission.SchoolID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this submission"})
		return
	}

	var documents []models.FileUpload
	if err := config.DB.Where("submission_id = ? AND delete_at IS NULL", submissionID).
		Order("uploaded_at ASC").Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": documents,
		"total":     len(documents),
	})
}
