package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/usecase"
)

type feedbackSubmitRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	Status      string `json:"status" binding:"required"`
	TryLevel    string `json:"try_level"`
	AbortReason string `json:"abort_reason"`
	Notes       string `json:"notes"`
}

// PostFeedbackSubmit handles POST /api/v1/feedback/submit.
func (s *Server) PostFeedbackSubmit(c *gin.Context) {
	var req feedbackSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.UnprocessableEntity(apperrors.CodeValidationError, err.Error())) //nolint:errcheck
		return
	}

	out, err := s.feedbackUC.Execute(c.Request.Context(), usecase.SubmitFeedbackInput{
		SessionID:   req.SessionID,
		Status:      req.Status,
		TryLevel:    req.TryLevel,
		AbortReason: req.AbortReason,
		Notes:       req.Notes,
	})
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, out)
}
