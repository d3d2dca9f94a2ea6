package usecase

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/domain"
	"tastebook.io/tastebook/internal/generator"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/repository"
	"tastebook.io/tastebook/internal/service"
)

// RegenerateStoryInput is the input for regenerating from an existing draft.
// TargetFood and StoryType are fallbacks used only when the previous draft
// did not store its generation inputs.
type RegenerateStoryInput struct {
	PreviousStoryID       string
	TargetFood            string
	StoryType             string
	DissatisfactionReason string
	DislikeReason         string
}

// RegenerateStoryUseCase produces a revised draft from a previous one,
// enforcing the per-source regeneration quota.
type RegenerateStoryUseCase struct {
	store     repository.Store
	generator generator.ContentGenerator
	enricher  *service.Enricher
}

// NewRegenerateStoryUseCase creates a new RegenerateStoryUseCase.
func NewRegenerateStoryUseCase(
	store repository.Store,
	gen generator.ContentGenerator,
	enricher *service.Enricher,
) *RegenerateStoryUseCase {
	return &RegenerateStoryUseCase{
		store:     store,
		generator: gen,
		enricher:  enricher,
	}
}

// Execute runs the regeneration use case.
//
// The quota is checked twice: a cheap pre-check on the loaded parent avoids
// a pointless generation call, and the store's conditional increment decides
// authoritatively. Between the two, a concurrent regeneration may consume
// the last slot; the generated content is discarded in that case.
func (uc *RegenerateStoryUseCase) Execute(ctx context.Context, input RegenerateStoryInput) (*GenerateStoryOutput, error) {
	if input.PreviousStoryID == "" {
		return nil, apperrors.UnprocessableEntity(apperrors.CodeValidationError, "previous_story_id is required")
	}

	parent, err := uc.store.GetDraft(ctx, input.PreviousStoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrStoryNotFound()
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load previous draft", http.StatusInternalServerError)
	}
	if parent.RegenCount >= domain.RegenLimit {
		return nil, apperrors.ErrRegenLimitReached()
	}

	profile, meal, config := carryForward(parent.Draft, input)

	content, err := uc.generator.Generate(ctx, &generator.Request{
		ChildProfile:          profile,
		MealContext:           meal,
		StoryConfig:           config,
		DissatisfactionReason: input.DissatisfactionReason,
		DislikeReason:         input.DislikeReason,
	})
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateContent(content); err != nil {
		return nil, apperrors.ErrGenerationFailed(err)
	}

	storyID := newStoryID()
	draft := service.AssembleDraft(storyID, content, profile, meal, config)

	rec := &domain.DraftRecord{
		DraftID:       storyID,
		ParentDraftID: input.PreviousStoryID,
		Draft:         draft,
		CreatedAt:     draft.GeneratedAt,
	}
	if err := uc.store.InsertRegeneratedDraft(ctx, rec); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrQuotaExhausted):
			return nil, apperrors.ErrRegenLimitReached()
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.ErrStoryNotFound()
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "persist regenerated draft", http.StatusInternalServerError)
		}
	}

	logger.Info("draft regenerated",
		zap.String("story_id", storyID),
		zap.String("parent_story_id", input.PreviousStoryID),
		zap.String("dissatisfaction_reason", input.DissatisfactionReason))

	uc.enricher.EnrichAsync(storyID, draft.Pages, draft.BookMeta.GlobalVisualStyle)

	return &GenerateStoryOutput{Draft: draft}, nil
}

// carryForward re-derives generation inputs from the previous draft. Stored
// inputs win; the request's target_food/story_type fill gaps only when the
// previous draft carries nothing. Missing optional fields stay empty rather
// than being guessed.
func carryForward(prev *domain.Draft, input RegenerateStoryInput) (*domain.ChildProfile, *domain.MealContext, *domain.StoryConfig) {
	profile := prev.ChildProfile
	if profile == nil {
		profile = &domain.ChildProfile{}
	}

	meal := prev.MealContext
	if meal == nil {
		meal = &domain.MealContext{TargetFood: input.TargetFood}
	}

	config := prev.StoryConfig
	if config == nil {
		config = &domain.StoryConfig{
			StoryType:          input.StoryType,
			Pages:              8,
			InteractiveDensity: "medium",
			Language:           "zh-CN",
		}
	}

	return profile, meal, config
}
