package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/repository"
)

// SubmitFeedbackInput is the terminal report for a session.
type SubmitFeedbackInput struct {
	SessionID   string
	Status      string
	TryLevel    string
	AbortReason string
	Notes       string
}

// SubmitFeedbackOutput acknowledges the submission.
type SubmitFeedbackOutput struct {
	OK bool `json:"ok"`
}

// SubmitFeedbackUseCase records one-shot session feedback and transitions
// the session to its terminal state.
type SubmitFeedbackUseCase struct {
	store repository.Store
}

// NewSubmitFeedbackUseCase creates a new SubmitFeedbackUseCase.
func NewSubmitFeedbackUseCase(store repository.Store) *SubmitFeedbackUseCase {
	return &SubmitFeedbackUseCase{store: store}
}

// Execute validates and persists the feedback. A repeat submission for the
// same session is a Conflict; the first submission's status stands.
func (uc *SubmitFeedbackUseCase) Execute(ctx context.Context, input SubmitFeedbackInput) (*SubmitFeedbackOutput, error) {
	if input.SessionID == "" {
		return nil, apperrors.UnprocessableEntity(apperrors.CodeValidationError, "session_id is required")
	}

	fb := &domain.Feedback{
		SessionID:   input.SessionID,
		Status:      domain.SessionStatus(input.Status),
		TryLevel:    input.TryLevel,
		AbortReason: input.AbortReason,
		Notes:       input.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	if err := fb.Validate(); err != nil {
		return nil, apperrors.UnprocessableEntity(apperrors.CodeValidationError, err.Error())
	}

	if err := uc.store.InsertFeedback(ctx, fb); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.ErrSessionNotFound()
		case errors.Is(err, apperrors.ErrAlreadyExists):
			return nil, apperrors.Conflict(apperrors.CodeConflict, "feedback already submitted")
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "persist feedback", http.StatusInternalServerError)
		}
	}

	logger.Info("feedback submitted",
		zap.String("session_id", input.SessionID),
		zap.String("status", input.Status))

	return &SubmitFeedbackOutput{OK: true}, nil
}
