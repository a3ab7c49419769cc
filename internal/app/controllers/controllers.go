package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/middleware"
)

// requireUser returns the authenticated user or writes a 401. Handlers run
// behind JWTAuth, so a miss here means a wiring mistake, not a user error.
func requireUser(ctx *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return user, ok
}
