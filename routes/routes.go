package routes

import (
	"research-portal-api/controllers"
	"research-portal-api/middleware"
	"research-portal-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// Wire the workflow engine against the connected database.
	controllers.InitWorkflowServices()

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Research Portal API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			protected.GET("/notifications", controllers.GetNotifications)
			protected.PUT("/notifications/:notification_id/read", controllers.MarkNotificationRead)
			protected.PUT("/notifications/read-all", controllers.MarkAllNotificationsRead)

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.GetSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.GET("/:id/history", controllers.GetSubmissionHistory)
				submissions.GET("/:id/incentive-preview", controllers.PreviewIncentive)

				// Applicants create and manage drafts
				submissions.POST("", middleware.RequireRole(models.RoleApplicant, models.RoleAdmin), controllers.CreateSubmission)
				submissions.PUT("/:id/detail", controllers.UpdateSubmissionDetail)
				submissions.DELETE("/:id", controllers.DeleteSubmission)

				// Roster (locked at first submit)
				submissions.POST("/:id/investigators", controllers.AddInvestigator)
				submissions.PUT("/:id/investigators/:investigator_id", controllers.UpdateInvestigator)
				submissions.DELETE("/:id/investigators/:investigator_id", controllers.RemoveInvestigator)

				// Attachments (opaque references)
				submissions.POST("/:id/documents", controllers.UploadDocument)
				submissions.GET("/:id/documents", controllers.GetDocuments)

				// Workflow transitions. Role and scope gates are enforced
				// inside the workflow service per event.
				submissions.POST("/:id/submit", controllers.SubmitSubmission)
				submissions.POST("/:id/mentor-approve", controllers.MentorApproveSubmission)
				submissions.POST("/:id/cancel", controllers.CancelSubmission)
				submissions.POST("/:id/start-review", controllers.StartReview)
				submissions.POST("/:id/request-changes", controllers.RequestChanges)
				submissions.POST("/:id/resubmit", controllers.ResubmitSubmission)
				submissions.POST("/:id/recommend", controllers.RecommendSubmission)
				submissions.POST("/:id/approve", controllers.ApproveSubmission)
				submissions.POST("/:id/reject", controllers.RejectSubmission)
				submissions.POST("/:id/credit", controllers.CreditSubmission)

				// Suggestions
				submissions.GET("/:id/suggestions", controllers.GetSuggestions)
				submissions.GET("/:id/suggestions/pending-count", controllers.GetPendingSuggestionCount)
				submissions.POST("/:id/suggestions", controllers.ProposeSuggestion)
				submissions.POST("/:id/suggestions/respond", controllers.BatchRespondSuggestions)
			}

			// Single suggestion responses
			protected.POST("/suggestions/:suggestion_id/respond", controllers.RespondSuggestion)

			// Incentive policies
			policies := protected.Group("/incentive-policies")
			{
				policies.GET("", controllers.GetIncentivePolicies)
				policies.GET("/lookup", controllers.LookupIncentivePolicy)

				// Only admin manages policy versions
				policies.POST("", middleware.RequireRole(models.RoleAdmin), controllers.CreateIncentivePolicy)
				policies.PUT("/:id", middleware.RequireRole(models.RoleAdmin), controllers.UpdateIncentivePolicy)
				policies.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteIncentivePolicy)
			}
		}
	}
}
