// Package service provides domain services shared by use cases: draft
// assembly and asynchronous image enrichment.
package service

import (
	"time"

	"tastebook.io/tastebook/internal/domain"
)

// AssembleDraft wraps generated story content in the versioned draft
// envelope. The generation inputs are embedded so a later regeneration can
// carry them forward without the caller resending anything.
func AssembleDraft(
	storyID string,
	content *domain.StoryContent,
	profile *domain.ChildProfile,
	meal *domain.MealContext,
	config *domain.StoryConfig,
) *domain.Draft {
	return &domain.Draft{
		SchemaVersion: domain.SchemaVersion,
		StoryID:       storyID,
		GeneratedAt:   time.Now().UTC(),

		ChildProfile: profile,
		MealContext:  meal,
		StoryConfig:  config,

		BookMeta: content.BookMeta,
		Pages:    content.Pages,
		Ending:   content.Ending,

		TelemetrySuggestions: domain.TelemetrySuggestions{
			RecommendedEvents: domain.RecommendedTelemetryEvents,
		},
	}
}
