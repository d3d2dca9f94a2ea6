package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

func seedDraft(t *testing.T, f *fixture) string {
	t.Helper()
	uc := NewGenerateStoryUseCase(f.store, f.gen, f.enricher(t))
	out, err := uc.Execute(context.Background(), generateInput())
	require.NoError(t, err)
	return out.Draft.StoryID
}

func TestRegenerateStory(t *testing.T) {
	f := newFixture(t)
	parentID := seedDraft(t, f)
	uc := NewRegenerateStoryUseCase(f.store, f.gen, f.enricher(t))

	out, err := uc.Execute(context.Background(), RegenerateStoryInput{
		PreviousStoryID:       parentID,
		DissatisfactionReason: "too long",
		DislikeReason:         "the bitter taste",
	})
	require.NoError(t, err)
	require.NotEqual(t, parentID, out.Draft.StoryID)

	// Child links back to the parent and starts with a fresh quota.
	child, err := f.store.GetDraft(context.Background(), out.Draft.StoryID)
	require.NoError(t, err)
	require.Equal(t, parentID, child.ParentDraftID)
	require.Zero(t, child.RegenCount)

	parent, err := f.store.GetDraft(context.Background(), parentID)
	require.NoError(t, err)
	require.Equal(t, 1, parent.RegenCount)

	// Stored inputs were carried forward and both reasons reached the model.
	reqs := f.gen.Requests()
	last := reqs[len(reqs)-1]
	require.Equal(t, "too long", last.DissatisfactionReason)
	require.Equal(t, "the bitter taste", last.DislikeReason)
	require.Equal(t, "Momo", last.ChildProfile.Nickname)
	require.Equal(t, "broccoli", last.MealContext.TargetFood)
	require.Equal(t, "adventure", last.StoryConfig.StoryType)
}

func TestRegenerateStory_QuotaExhausted(t *testing.T) {
	f := newFixture(t)
	parentID := seedDraft(t, f)
	uc := NewRegenerateStoryUseCase(f.store, f.gen, f.enricher(t))

	for i := 0; i < domain.RegenLimit; i++ {
		_, err := uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: parentID})
		require.NoError(t, err)
	}

	_, err := uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: parentID})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeRegenLimitReached, appErr.Code)
	require.Equal(t, 429, appErr.HTTPStatus)
}

func TestRegenerateStory_ChildQuotaIndependent(t *testing.T) {
	f := newFixture(t)
	parentID := seedDraft(t, f)
	uc := NewRegenerateStoryUseCase(f.store, f.gen, f.enricher(t))

	out, err := uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: parentID})
	require.NoError(t, err)

	// Exhaust the parent; regenerating from the child still works.
	_, err = uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: parentID})
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: parentID})
	require.Error(t, err)

	_, err = uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: out.Draft.StoryID})
	require.NoError(t, err)
}

func TestRegenerateStory_NotFound(t *testing.T) {
	f := newFixture(t)
	uc := NewRegenerateStoryUseCase(f.store, f.gen, f.enricher(t))

	_, err := uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: "st_missing"})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)

	// The model must not be called for a missing parent.
	require.Empty(t, f.gen.Requests())
}

func TestRegenerateStory_GeneratorFailureLeavesQuotaUntouched(t *testing.T) {
	f := newFixture(t)
	parentID := seedDraft(t, f)

	f.gen.Err = apperrors.ErrGenerationFailed(context.Canceled)
	uc := NewRegenerateStoryUseCase(f.store, f.gen, f.enricher(t))

	_, err := uc.Execute(context.Background(), RegenerateStoryInput{PreviousStoryID: parentID})
	require.Error(t, err)

	parent, err := f.store.GetDraft(context.Background(), parentID)
	require.NoError(t, err)
	require.Zero(t, parent.RegenCount)
}

func TestRegenerateStory_FallbackInputs(t *testing.T) {
	f := newFixture(t)
	uc := NewRegenerateStoryUseCase(f.store, f.gen, f.enricher(t))

	// A draft stored without generation inputs (e.g. written by an older
	// version) falls back to the caller-supplied fields.
	bare := testDraftWithoutInputs("st_bare")
	require.NoError(t, f.store.InsertDraft(context.Background(), bare))

	_, err := uc.Execute(context.Background(), RegenerateStoryInput{
		PreviousStoryID: "st_bare",
		TargetFood:      "carrot",
		StoryType:       "space",
	})
	require.NoError(t, err)

	reqs := f.gen.Requests()
	last := reqs[len(reqs)-1]
	require.Equal(t, "carrot", last.MealContext.TargetFood)
	require.Equal(t, "space", last.StoryConfig.StoryType)
	// The missing meal score stays absent instead of being invented.
	require.Zero(t, last.MealContext.MealScore)
}

func testDraftWithoutInputs(storyID string) *domain.DraftRecord {
	draft := &domain.Draft{
		SchemaVersion: domain.SchemaVersion,
		StoryID:       storyID,
		BookMeta:      domain.BookMeta{Title: "T", ThemeFood: "carrot"},
		Pages: []domain.Page{{
			PageNo: 1, PageID: "p01", BehaviorAnchor: domain.BehaviorLv1,
			Text: "t", ImagePrompt: "i",
			Interaction: domain.Interaction{Type: domain.InteractionNone},
		}},
		Ending: domain.Ending{PositiveFeedback: "f", NextMicroGoal: "g"},
	}
	return &domain.DraftRecord{DraftID: storyID, Draft: draft, CreatedAt: draft.GeneratedAt}
}
