// Package usecase provides application use cases (Clean Architecture).
//
// Use cases own cross-component orchestration: they call the generator,
// validate content, persist through the store, and launch enrichment. They
// are reusable across HTTP and any future transport.
package usecase

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/domain"
	"tastebook.io/tastebook/internal/generator"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/repository"
	"tastebook.io/tastebook/internal/service"
)

// GenerateStoryInput is the input for generating a new story draft.
type GenerateStoryInput struct {
	ChildProfile   *domain.ChildProfile
	MealContext    *domain.MealContext
	StoryConfig    *domain.StoryConfig
	HistoryContext *domain.HistoryContext
}

// GenerateStoryOutput carries the assembled draft.
type GenerateStoryOutput struct {
	Draft *domain.Draft `json:"draft"`
}

// GenerateStoryUseCase orchestrates draft creation: generate content,
// validate it, persist, launch enrichment, return.
type GenerateStoryUseCase struct {
	store     repository.Store
	generator generator.ContentGenerator
	enricher  *service.Enricher
}

// NewGenerateStoryUseCase creates a new GenerateStoryUseCase.
func NewGenerateStoryUseCase(
	store repository.Store,
	gen generator.ContentGenerator,
	enricher *service.Enricher,
) *GenerateStoryUseCase {
	return &GenerateStoryUseCase{
		store:     store,
		generator: gen,
		enricher:  enricher,
	}
}

// Execute runs the generation use case. The draft is returned as soon as it
// is persisted; illustrations arrive later via detached enrichment.
func (uc *GenerateStoryUseCase) Execute(ctx context.Context, input GenerateStoryInput) (*GenerateStoryOutput, error) {
	if err := validateGenerateInput(input); err != nil {
		return nil, err
	}

	content, err := uc.generator.Generate(ctx, &generator.Request{
		ChildProfile: input.ChildProfile,
		MealContext:  input.MealContext,
		StoryConfig:  input.StoryConfig,
	})
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateContent(content); err != nil {
		return nil, apperrors.ErrGenerationFailed(err)
	}

	storyID := newStoryID()
	draft := service.AssembleDraft(storyID, content, input.ChildProfile, input.MealContext, input.StoryConfig)

	rec := &domain.DraftRecord{
		DraftID:   storyID,
		Draft:     draft,
		CreatedAt: draft.GeneratedAt,
	}
	if err := uc.store.InsertDraft(ctx, rec); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "persist draft", http.StatusInternalServerError)
	}

	logger.Info("draft generated",
		zap.String("story_id", storyID),
		zap.String("target_food", input.MealContext.TargetFood),
		zap.Int("pages", len(draft.Pages)))

	uc.enricher.EnrichAsync(storyID, draft.Pages, draft.BookMeta.GlobalVisualStyle)

	return &GenerateStoryOutput{Draft: draft}, nil
}

func validateGenerateInput(input GenerateStoryInput) error {
	switch {
	case input.ChildProfile == nil || input.ChildProfile.Nickname == "":
		return apperrors.UnprocessableEntity(apperrors.CodeValidationError, "child_profile.nickname is required")
	case input.ChildProfile.Age <= 0:
		return apperrors.UnprocessableEntity(apperrors.CodeValidationError, "child_profile.age must be positive")
	case input.MealContext == nil || input.MealContext.TargetFood == "":
		return apperrors.UnprocessableEntity(apperrors.CodeValidationError, "meal_context.target_food is required")
	case input.StoryConfig == nil || input.StoryConfig.StoryType == "":
		return apperrors.UnprocessableEntity(apperrors.CodeValidationError, "story_config.story_type is required")
	}
	return nil
}

// newStoryID builds a "st_" prefixed id from a UUIDv7, keeping ids
// time-sortable while staying short enough for logs and URLs.
func newStoryID() string {
	return "st_" + shortUUID()
}

func newSessionID() string {
	return "ss_" + shortUUID()
}

func shortUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 only fails when the entropy source does; fall back to v4.
		id = uuid.New()
	}
	return hex.EncodeToString(id[:])[:16]
}
