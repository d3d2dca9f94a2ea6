package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

func startedSession(t *testing.T, f *fixture) string {
	t.Helper()
	storyID := seedDraft(t, f)
	out, err := NewStartSessionUseCase(f.store).Execute(context.Background(), StartSessionInput{
		StoryID:            storyID,
		ClientSessionToken: "device-7",
	})
	require.NoError(t, err)
	return out.SessionID
}

func TestSubmitFeedback_Completed(t *testing.T) {
	f := newFixture(t)
	sessionID := startedSession(t, f)
	uc := NewSubmitFeedbackUseCase(f.store)

	out, err := uc.Execute(context.Background(), SubmitFeedbackInput{
		SessionID: sessionID,
		Status:    "COMPLETED",
		TryLevel:  "taste",
		Notes:     "asked for seconds",
	})
	require.NoError(t, err)
	require.True(t, out.OK)

	sess, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionCompleted, sess.Status)
}

func TestSubmitFeedback_Aborted(t *testing.T) {
	f := newFixture(t)
	sessionID := startedSession(t, f)
	uc := NewSubmitFeedbackUseCase(f.store)

	_, err := uc.Execute(context.Background(), SubmitFeedbackInput{
		SessionID:   sessionID,
		Status:      "ABORTED",
		AbortReason: "tired",
	})
	require.NoError(t, err)

	sess, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionAborted, sess.Status)
}

func TestSubmitFeedback_ConditionalValidation(t *testing.T) {
	f := newFixture(t)
	sessionID := startedSession(t, f)
	uc := NewSubmitFeedbackUseCase(f.store)

	testCases := []struct {
		name  string
		input SubmitFeedbackInput
	}{
		{"completed without try_level", SubmitFeedbackInput{SessionID: sessionID, Status: "COMPLETED"}},
		{"aborted without abort_reason", SubmitFeedbackInput{SessionID: sessionID, Status: "ABORTED"}},
		{"unknown status", SubmitFeedbackInput{SessionID: sessionID, Status: "PAUSED", TryLevel: "taste"}},
		{"missing session id", SubmitFeedbackInput{Status: "COMPLETED", TryLevel: "taste"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.input)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			require.Equal(t, apperrors.CodeValidationError, appErr.Code)
			require.Equal(t, 422, appErr.HTTPStatus)
		})
	}

	// None of the rejected submissions changed the session.
	sess, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionReading, sess.Status)
}

func TestSubmitFeedback_DuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	sessionID := startedSession(t, f)
	uc := NewSubmitFeedbackUseCase(f.store)

	_, err := uc.Execute(context.Background(), SubmitFeedbackInput{
		SessionID: sessionID,
		Status:    "COMPLETED",
		TryLevel:  "taste",
	})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), SubmitFeedbackInput{
		SessionID:   sessionID,
		Status:      "ABORTED",
		AbortReason: "second thoughts",
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeConflict, appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)

	// First submission's terminal state stands.
	sess, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionCompleted, sess.Status)
}

func TestSubmitFeedback_SessionNotFound(t *testing.T) {
	f := newFixture(t)
	uc := NewSubmitFeedbackUseCase(f.store)

	_, err := uc.Execute(context.Background(), SubmitFeedbackInput{
		SessionID: "ss_missing",
		Status:    "COMPLETED",
		TryLevel:  "taste",
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestGetStory(t *testing.T) {
	f := newFixture(t)
	storyID := seedDraft(t, f)

	out, err := NewGetStoryUseCase(f.store).Execute(context.Background(), storyID)
	require.NoError(t, err)
	require.Equal(t, storyID, out.Draft.StoryID)

	_, err = NewGetStoryUseCase(f.store).Execute(context.Background(), "st_missing")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}
