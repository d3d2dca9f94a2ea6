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

// Session start statuses reported to the caller.
const (
	SessionCreated = "created"
	SessionExisted = "existed"
)

// StartSessionInput identifies the draft and the client's idempotency token.
type StartSessionInput struct {
	StoryID            string
	ClientSessionToken string
}

// StartSessionOutput reports the session id and whether it already existed.
type StartSessionOutput struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// StartSessionUseCase creates reading sessions idempotently on
// (story_id, client_session_token).
type StartSessionUseCase struct {
	store repository.Store
}

// NewStartSessionUseCase creates a new StartSessionUseCase.
func NewStartSessionUseCase(store repository.Store) *StartSessionUseCase {
	return &StartSessionUseCase{store: store}
}

// Execute starts (or returns) the session for the idempotency pair. The
// insert is attempted first and the unique constraint resolves races: two
// concurrent starts with the same pair yield one "created" and one
// "existed", never two sessions.
func (uc *StartSessionUseCase) Execute(ctx context.Context, input StartSessionInput) (*StartSessionOutput, error) {
	if input.StoryID == "" {
		return nil, apperrors.UnprocessableEntity(apperrors.CodeValidationError, "story_id is required")
	}
	if input.ClientSessionToken == "" {
		return nil, apperrors.UnprocessableEntity(apperrors.CodeValidationError, "client_session_token is required")
	}

	if _, err := uc.store.GetDraft(ctx, input.StoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrStoryNotFound()
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load draft", http.StatusInternalServerError)
	}

	sess := &domain.Session{
		SessionID:   newSessionID(),
		DraftID:     input.StoryID,
		ClientToken: input.ClientSessionToken,
		Status:      domain.SessionReading,
		CreatedAt:   time.Now().UTC(),
	}

	err := uc.store.InsertSession(ctx, sess)
	if err == nil {
		logger.Info("session started",
			zap.String("session_id", sess.SessionID),
			zap.String("story_id", input.StoryID))
		return &StartSessionOutput{SessionID: sess.SessionID, Status: SessionCreated}, nil
	}
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "persist session", http.StatusInternalServerError)
	}

	existing, err := uc.store.GetSessionByKey(ctx, input.StoryID, input.ClientSessionToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load existing session", http.StatusInternalServerError)
	}
	return &StartSessionOutput{SessionID: existing.SessionID, Status: SessionExisted}, nil
}
