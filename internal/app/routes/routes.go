package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/controllers"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/middleware"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	teamController *controllers.TeamController,
	fileController *controllers.FileController,
	reviewController *controllers.ReviewController,
	notificationController *controllers.NotificationController,
	assignmentController *controllers.AssignmentController,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.POST("/auth/change-password", authController.ChangePassword)
		authenticated.GET("/users/me", userController.Me)

		// File routes, available to every authenticated user. The service
		// layer scopes reads to the caller's role.
		files := authenticated.Group("/files")
		{
			files.POST("", fileController.Upload)
			files.GET("", fileController.List)
			files.GET("/:id", fileController.GetByID)
			files.PATCH("/:id", fileController.Update)
			files.DELETE("/:id", fileController.Delete)
			files.GET("/:id/download", fileController.Download)
			files.GET("/:id/history", fileController.GetHistory)
			files.GET("/:id/comments", fileController.GetComments)
			files.POST("/:id/comments", fileController.AddComment)

			// Review routes restricted to reviewing roles
			reviewProtected := files.Group("")
			reviewProtected.Use(authMiddleware.RoleRequired(models.RoleTeamLeader, models.RoleAdmin))
			{
				reviewProtected.POST("/:id/team-leader-review", reviewController.TeamLeaderReview)
				reviewProtected.POST("/bulk-action", reviewController.BulkAction)
			}

			// Final approval and publishing are admin only
			adminReviewProtected := files.Group("")
			adminReviewProtected.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				adminReviewProtected.POST("/:id/admin-review", reviewController.AdminReview)
				adminReviewProtected.POST("/:id/move-to-projects", reviewController.MoveToProjects)
			}
		}

		// Notification routes
		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", notificationController.List)
			notifications.PATCH("/:id/read", notificationController.MarkRead)
			notifications.PATCH("/read-all", notificationController.MarkAllRead)
			notifications.DELETE("/:id", notificationController.Delete)
			notifications.DELETE("", notificationController.ClearAll)
		}

		// Assignment routes
		assignments := authenticated.Group("/assignments")
		{
			assignments.GET("", assignmentController.List)
			assignments.GET("/:id", assignmentController.GetByID)
			assignments.PATCH("/:id/status", assignmentController.UpdateStatus)
			assignments.GET("/:id/comments", assignmentController.GetComments)
			assignments.POST("/:id/comments", assignmentController.AddComment)

			assignmentsLeaderProtected := assignments.Group("")
			assignmentsLeaderProtected.Use(authMiddleware.RoleRequired(models.RoleTeamLeader, models.RoleAdmin))
			{
				assignmentsLeaderProtected.POST("", assignmentController.Create)
				assignmentsLeaderProtected.DELETE("/:id", assignmentController.Delete)
			}
		}

		// User management routes (admin only, except /users/me above)
		usersProtected := authenticated.Group("/users")
		usersProtected.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			usersProtected.POST("", userController.Create)
			usersProtected.GET("", userController.List)
			usersProtected.GET("/:id", userController.GetByID)
			usersProtected.PATCH("/:id", userController.Update)
			usersProtected.DELETE("/:id", userController.Delete)
		}

		// Team management routes (admin only)
		teamsProtected := authenticated.Group("/teams")
		teamsProtected.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			teamsProtected.POST("", teamController.Create)
			teamsProtected.GET("", teamController.List)
			teamsProtected.GET("/:id", teamController.GetByID)
			teamsProtected.PATCH("/:id", teamController.Update)
			teamsProtected.DELETE("/:id", teamController.Delete)
		}

		// Live notification stream. The JWT is passed as a query parameter
		// because browsers cannot set headers on a WebSocket handshake.
		authenticated.GET("/ws/notifications", wsHandler.HandleConnection)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Success: true,
			Data:    gin.H{"status": "ok"},
		})
	})
}
