package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/services"
	"github.com/imrysn/kmtifmsv2-sub000/internal/middleware"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/filestorage"
)

// FileController handles file upload and metadata endpoints
type FileController struct {
	fileService services.FileService
	fileStorage filestorage.FileStorage
}

// NewFileController creates a new FileController
func NewFileController(fileService services.FileService, fileStorage filestorage.FileStorage) *FileController {
	return &FileController{
		fileService: fileService,
		fileStorage: fileStorage,
	}
}

func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid ID").
			WithField(name).
			WithDetails("ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// Upload handles a multipart file upload
// @Summary Upload a file
// @Description Stores the file and places it at the start of the review pipeline. A duplicate name returns 409 with the existing file unless replace=true is sent.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Param description formData string false "Description"
// @Param replace formData bool false "Replace an existing file with the same name"
// @Success 201 {object} dto.APIResponse{data=models.File} "File uploaded"
// @Failure 400 {object} dto.ErrorResponse "No file or invalid form"
// @Failure 409 {object} dto.ErrorResponse "Duplicate file name"
// @Router /files [post]
func (c *FileController) Upload(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.UploadFileRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "No file provided").WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	file, err := c.fileService.Upload(ctx.Request.Context(), fileHeader, &req, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(file))
}

// List handles file listing with filters
// @Summary List files
// @Description Lists files scoped to the caller's role: users see their own, team leaders their team's, admins everything
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param stage query string false "Filter by review stage"
// @Param team query string false "Filter by team (admin only)"
// @Param userId query int false "Filter by owner (admin only)"
// @Param search query string false "Search name, description or uploader"
// @Param sortBy query string false "Sort column"
// @Param sortDir query string false "asc or desc"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.FileListResponse} "Files"
// @Router /files [get]
func (c *FileController) List(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}

	var filter dto.FileFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	response, err := c.fileService.List(ctx.Request.Context(), user, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(response.Files, response.Pagination))
}

// GetByID handles retrieving a single file
// @Summary Get file by ID
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} dto.APIResponse{data=models.File} "File"
// @Failure 403 {object} dto.ErrorResponse "Not allowed to see this file"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id} [get]
func (c *FileController) GetByID(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	file, err := c.fileService.GetByID(ctx.Request.Context(), id, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(file))
}

// Download streams the stored file bytes
// @Summary Download a file
// @Tags files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {file} binary "File content"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/download [get]
func (c *FileController) Download(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	file, err := c.fileService.GetByID(ctx.Request.Context(), id, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	fullPath := c.fileStorage.FullPath(file.FilePath)
	if fullPath == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Stored file is missing")
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.FileAttachment(fullPath, file.OriginalName)
}

// Update handles metadata patches
// @Summary Update file metadata
// @Description Patches description, priority and due date without touching the review pipeline
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param request body dto.UpdateFileRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=models.File} "Updated file"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id} [patch]
func (c *FileController) Update(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	file, err := c.fileService.UpdateMetadata(ctx.Request.Context(), id, user, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(file))
}

// Delete handles file removal
// @Summary Delete a file
// @Description Removes the file row and the stored bytes. Owners and admins only.
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} dto.APIResponse "File deleted"
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id} [delete]
func (c *FileController) Delete(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.fileService.Delete(ctx.Request.Context(), id, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"message": "File deleted"}))
}

// GetHistory handles the audit trail read
// @Summary Get file status history
// @Description Returns the append-only audit trail of review transitions, oldest first
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} dto.APIResponse{data=[]models.FileStatusHistory} "History entries"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/history [get]
func (c *FileController) GetHistory(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	history, err := c.fileService.GetHistory(ctx.Request.Context(), id, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(history))
}

// GetComments handles the comment list read
// @Summary Get file comments
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} dto.APIResponse{data=[]models.FileComment} "Comments"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/comments [get]
func (c *FileController) GetComments(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	comments, err := c.fileService.GetComments(ctx.Request.Context(), id, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comments))
}

// AddComment handles ad hoc comments
// @Summary Comment on a file
// @Description Adds a plain comment and notifies the file owner
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param request body dto.AddFileCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=models.FileComment} "Comment created"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/comments [post]
func (c *FileController) AddComment(ctx *gin.Context) {
	user, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.AddFileCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	comment, err := c.fileService.AddComment(ctx.Request.Context(), id, user, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment))
}
