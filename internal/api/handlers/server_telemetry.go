package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/usecase"
)

type telemetryReportRequest struct {
	Events []domain.TelemetryEvent `json:"events"`
}

// PostTelemetryReport handles POST /api/v1/telemetry/report. The response
// always partitions the batch; malformed individual events are counted as
// rejected rather than failing the request.
func (s *Server) PostTelemetryReport(c *gin.Context) {
	var req telemetryReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.UnprocessableEntity(apperrors.CodeValidationError, err.Error())) //nolint:errcheck
		return
	}

	out, err := s.telemetryUC.Execute(c.Request.Context(), usecase.ReportTelemetryInput{
		Events: req.Events,
	})
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, out)
}
