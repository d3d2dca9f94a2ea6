package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tastebook.io/tastebook/internal/domain"
	"tastebook.io/tastebook/internal/testutil"
)

func TestAssembleDraft(t *testing.T) {
	profile := &domain.ChildProfile{Nickname: "Momo", Age: 4}
	meal := &domain.MealContext{TargetFood: "broccoli"}
	config := &domain.StoryConfig{StoryType: "adventure", Pages: 3}
	content := testutil.StoryContent("broccoli")

	draft := AssembleDraft("st_abc", content, profile, meal, config)

	require.Equal(t, domain.SchemaVersion, draft.SchemaVersion)
	require.Equal(t, "st_abc", draft.StoryID)
	require.False(t, draft.GeneratedAt.IsZero())

	require.Same(t, profile, draft.ChildProfile)
	require.Same(t, meal, draft.MealContext)
	require.Same(t, config, draft.StoryConfig)

	require.Equal(t, content.BookMeta, draft.BookMeta)
	require.Equal(t, content.Pages, draft.Pages)
	require.Equal(t, content.Ending, draft.Ending)
	require.Equal(t, domain.RecommendedTelemetryEvents, draft.TelemetrySuggestions.RecommendedEvents)
}
