package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/services"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
	"github.com/imrysn/kmtifmsv2-sub000/internal/middleware"
)

// ReviewController handles the review pipeline endpoints
type ReviewController struct {
	reviewService services.ReviewService
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviewService services.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// reviewerRole maps the caller's role onto the pipeline stage they review.
// Admins acting on the team leader endpoint would break the strict staging,
// so each endpoint pins its role.
func (c *ReviewController) review(ctx *gin.Context, role workflow.ReviewerRole) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	file, err := c.reviewService.Review(ctx.Request.Context(), id, user, role, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ReviewResponse{File: file}))
}

// TeamLeaderReview handles the first review stage
// @Summary Team leader review
// @Description Approves or rejects a file pending team leader review. Approval moves it to the admin queue.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param request body dto.ReviewRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewResponse} "File after the transition"
// @Failure 400 {object} dto.ErrorResponse "Invalid action or file not pending team leader review"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/team-leader-review [post]
func (c *ReviewController) TeamLeaderReview(ctx *gin.Context) {
	c.review(ctx, workflow.ReviewerTeamLeader)
}

// AdminReview handles the final review stage
// @Summary Admin review
// @Description Approves or rejects a file pending admin review. The file must be exactly in the pending_admin stage.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param request body dto.ReviewRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewResponse} "File after the transition"
// @Failure 400 {object} dto.ErrorResponse "Invalid action or file not pending admin review"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/admin-review [post]
func (c *ReviewController) AdminReview(ctx *gin.Context) {
	c.review(ctx, workflow.ReviewerAdmin)
}

// BulkAction applies one decision to many files
// @Summary Bulk review
// @Description Applies the same approve/reject decision to a list of files. Files are validated independently; the response always accounts for every requested ID.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkActionRequest true "File IDs and decision"
// @Success 200 {object} dto.APIResponse{data=dto.BulkActionResults} "Per-file outcomes"
// @Failure 400 {object} dto.ErrorResponse "Invalid action"
// @Router /files/bulk-action [post]
func (c *ReviewController) BulkAction(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.BulkActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	role := workflow.ReviewerTeamLeader
	if user.RoleType == models.RoleAdmin {
		role = workflow.ReviewerAdmin
	}

	results, err := c.reviewService.BulkReview(ctx.Request.Context(), user, role, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(results))
}

// MoveToProjects publishes a final approved file
// @Summary Move file to projects
// @Description Copies a final approved file into the projects share and records the destination. Refuses to overwrite and can only happen once per file.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param request body dto.MoveToProjectsRequest true "Destination directory"
// @Success 200 {object} dto.APIResponse{data=dto.MoveToProjectsResponse} "Destination"
// @Failure 400 {object} dto.ErrorResponse "File not final approved or already moved"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Failure 409 {object} dto.ErrorResponse "Destination file already exists"
// @Router /files/{id}/move-to-projects [post]
func (c *ReviewController) MoveToProjects(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.MoveToProjectsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	result, err := c.reviewService.MoveToProjects(ctx.Request.Context(), id, user, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
