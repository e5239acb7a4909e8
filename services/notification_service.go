package services

import (
	"fmt"
	"log"
	"research-portal-api/config"
	"research-portal-api/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService turns workflow events into notification rows and
// best-effort emails. Delivery failures are logged, never propagated: a
// transition must not fail because SMTP is down.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

var statusNotificationTypes = map[string]string{
	models.StatusSubmitted:       "info",
	models.StatusUnderReview:     "info",
	models.StatusChangesRequired: "warning",
	models.StatusResubmitted:     "info",
	models.StatusRecommended:     "info",
	models.StatusApproved:        "success",
	models.StatusCompleted:       "success",
	models.StatusRejected:        "error",
	models.StatusCancelled:       "info",
}

// NotifyTransition records a transition-occurred event for the applicant
// (and the current reviewer if one is assigned and did not act themselves).
func (s *NotificationService) NotifyTransition(submission *models.Submission, fromStatus, toStatus string, actorID int, comment string) {
	number := fmt.Sprintf("#%d", submission.SubmissionID)
	if submission.ApplicationNumber != nil {
		number = *submission.ApplicationNumber
	}

	title := fmt.Sprintf("Submission %s: %s", number, toStatus)
	message := fmt.Sprintf("Submission %s moved from %s to %s.", number, fromStatus, toStatus)
	if comment != "" {
		message += " Comment: " + comment
	}

	notifType := statusNotificationTypes[toStatus]
	if notifType == "" {
		notifType = "info"
	}

	recipients := []int{submission.UserID}
	if submission.CurrentReviewerID != nil && *submission.CurrentReviewerID != actorID && *submission.CurrentReviewerID != submission.UserID {
		recipients = append(recipients, *submission.CurrentReviewerID)
	}

	for _, userID := range recipients {
		if userID == actorID {
			continue
		}
		s.deliver(userID, title, message, notifType, submission.SubmissionID)
	}
}

// NotifySuggestionResolved records a suggestion-resolved event for the
// reviewer who proposed the edit.
func (s *NotificationService) NotifySuggestionResolved(submission *models.Submission, suggestion *models.EditSuggestion, actorID int) {
	if suggestion.ReviewerID == actorID {
		return
	}

	number := fmt.Sprintf("#%d", submission.SubmissionID)
	if submission.ApplicationNumber != nil {
		number = *submission.ApplicationNumber
	}

	title := fmt.Sprintf("Suggestion %s on %s", suggestion.Status, number)
	message := fmt.Sprintf("Your suggestion for field %q on submission %s was %s.", suggestion.FieldName, number, suggestion.Status)

	notifType := "info"
	if suggestion.Status == models.SuggestionRejected {
		notifType = "warning"
	}

	s.deliver(suggestion.ReviewerID, title, message, notifType, submission.SubmissionID)
}

func (s *NotificationService) deliver(userID int, title, message, notifType string, submissionID int) {
	notification := models.Notification{
		UserID:              userID,
		Title:               title,
		Message:             message,
		Type:                notifType,
		RelatedSubmissionID: &submissionID,
		DedupeKey:           uuid.NewString(),
		CreateAt:            time.Now(),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		log.Printf("Warning: failed to store notification for user %d: %v", userID, err)
		return
	}

	var user models.User
	if err := s.db.Select("user_id", "email").Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		return
	}
	if user.Email == "" {
		return
	}

	body := fmt.Sprintf("<p>%s</p>", message)
	if err := config.SendMail([]string{user.Email}, title, body); err != nil {
		log.Printf("Warning: failed to send notification mail to %s: %v", user.Email, err)
	}
}
