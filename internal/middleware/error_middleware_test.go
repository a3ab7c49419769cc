package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
)

func TestHandleAPIErrorStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"wrong stage is a client error", workflow.ErrInvalidStage, 400, dto.ErrorCodeInvalidStage},
		{"bad action is a client error", workflow.ErrInvalidAction, 400, dto.ErrorCodeInvalidAction},
		{"missing file", apperrors.ErrFileNotFound, 404, dto.ErrorCodeResourceNotFound},
		{"duplicate upload", apperrors.ErrDuplicateFile, 409, dto.ErrorCodeResourceAlreadyExists},
		{"destination taken", apperrors.ErrDestinationExists, 409, dto.ErrorCodeResourceAlreadyExists},
		{"permission denied", apperrors.ErrPermissionDenied, 403, dto.ErrorCodeForbidden},
		{"bad credentials", apperrors.ErrInvalidCredentials, 401, dto.ErrorCodeInvalidCredentials},
		{"expired token", apperrors.ErrTokenExpired, 401, dto.ErrorCodeExpiredToken},
		{"revoked token", apperrors.ErrTokenRevoked, 401, dto.ErrorCodeInvalidToken},
		{"unknown errors stay opaque", errors.New("pq: connection refused"), 500, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleAPIErrorKeepsCustomMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := apperrors.NewCustomError(apperrors.ErrDuplicateFile, "A file with this name already exists").
		WithDetails(map[string]interface{}{"existingFile": map[string]any{"id": 42}})
	HandleAPIError(c, err)

	assert.Equal(t, 409, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "A file with this name already exists", resp.Error.Message)

	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "existingFile")
}
