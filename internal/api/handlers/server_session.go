package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/usecase"
)

type sessionStartRequest struct {
	StoryID            string `json:"story_id" binding:"required"`
	ClientSessionToken string `json:"client_session_token" binding:"required"`
}

// PostSessionStart handles POST /api/v1/session/start.
func (s *Server) PostSessionStart(c *gin.Context) {
	var req sessionStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.UnprocessableEntity(apperrors.CodeValidationError, err.Error())) //nolint:errcheck
		return
	}

	out, err := s.startSessionUC.Execute(c.Request.Context(), usecase.StartSessionInput{
		StoryID:            req.StoryID,
		ClientSessionToken: req.ClientSessionToken,
	})
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, out)
}
