// Package handlers implements the HTTP API surface.
//
// Handlers only bind requests, call use cases, and shape responses; all
// orchestration lives in the use case layer. Errors are attached via
// c.Error() and rendered by the ErrorHandler middleware.
package handlers

import (
	"github.com/gin-gonic/gin"

	"tastebook.io/tastebook/internal/repository"
	"tastebook.io/tastebook/internal/usecase"
)

// Server implements all API handlers.
type Server struct {
	store          repository.Store
	generateUC     *usecase.GenerateStoryUseCase
	regenerateUC   *usecase.RegenerateStoryUseCase
	getStoryUC     *usecase.GetStoryUseCase
	startSessionUC *usecase.StartSessionUseCase
	telemetryUC    *usecase.ReportTelemetryUseCase
	feedbackUC     *usecase.SubmitFeedbackUseCase
}

// ServerDeps holds all dependencies for creating a Server.
// Manual DI, no Wire/Dig.
type ServerDeps struct {
	Store          repository.Store
	GenerateUC     *usecase.GenerateStoryUseCase
	RegenerateUC   *usecase.RegenerateStoryUseCase
	GetStoryUC     *usecase.GetStoryUseCase
	StartSessionUC *usecase.StartSessionUseCase
	TelemetryUC    *usecase.ReportTelemetryUseCase
	FeedbackUC     *usecase.SubmitFeedbackUseCase
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		store:          deps.Store,
		generateUC:     deps.GenerateUC,
		regenerateUC:   deps.RegenerateUC,
		getStoryUC:     deps.GetStoryUC,
		startSessionUC: deps.StartSessionUC,
		telemetryUC:    deps.TelemetryUC,
		feedbackUC:     deps.FeedbackUC,
	}
}

// RegisterRoutes attaches all API routes to the router.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)

	v1 := r.Group("/api/v1")
	{
		story := v1.Group("/story")
		{
			story.POST("/generate", s.PostStoryGenerate)
			story.POST("/regenerate", s.PostStoryRegenerate)
			story.GET("/:story_id", s.GetStory)
		}
		v1.POST("/session/start", s.PostSessionStart)
		v1.POST("/telemetry/report", s.PostTelemetryReport)
		v1.POST("/feedback/submit", s.PostFeedbackSubmit)
	}
}
