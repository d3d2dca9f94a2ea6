package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	storyID := seedDraft(t, f)
	uc := NewStartSessionUseCase(f.store)

	out, err := uc.Execute(context.Background(), StartSessionInput{
		StoryID:            storyID,
		ClientSessionToken: "device-7",
	})
	require.NoError(t, err)
	require.Equal(t, SessionCreated, out.Status)
	require.True(t, strings.HasPrefix(out.SessionID, "ss_"), out.SessionID)

	sess, err := f.store.GetSession(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionReading, sess.Status)
}

func TestStartSession_Idempotent(t *testing.T) {
	f := newFixture(t)
	storyID := seedDraft(t, f)
	uc := NewStartSessionUseCase(f.store)

	first, err := uc.Execute(context.Background(), StartSessionInput{
		StoryID:            storyID,
		ClientSessionToken: "device-7",
	})
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), StartSessionInput{
		StoryID:            storyID,
		ClientSessionToken: "device-7",
	})
	require.NoError(t, err)
	require.Equal(t, SessionExisted, second.Status)
	require.Equal(t, first.SessionID, second.SessionID)

	// A different token gets its own session.
	third, err := uc.Execute(context.Background(), StartSessionInput{
		StoryID:            storyID,
		ClientSessionToken: "device-8",
	})
	require.NoError(t, err)
	require.Equal(t, SessionCreated, third.Status)
	require.NotEqual(t, first.SessionID, third.SessionID)
}

func TestStartSession_StoryNotFound(t *testing.T) {
	f := newFixture(t)
	uc := NewStartSessionUseCase(f.store)

	_, err := uc.Execute(context.Background(), StartSessionInput{
		StoryID:            "st_missing",
		ClientSessionToken: "device-7",
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestStartSession_Validation(t *testing.T) {
	f := newFixture(t)
	uc := NewStartSessionUseCase(f.store)

	for _, input := range []StartSessionInput{
		{StoryID: "", ClientSessionToken: "tok"},
		{StoryID: "st_x", ClientSessionToken: ""},
	} {
		_, err := uc.Execute(context.Background(), input)
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.CodeValidationError, appErr.Code)
	}
}
