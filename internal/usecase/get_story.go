package usecase

import (
	"context"
	"errors"
	"net/http"

	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/repository"
)

// GetStoryUseCase fetches a stored draft. This is how clients observe
// enrichment results: image URLs appear on re-fetch once illustration
// completes.
type GetStoryUseCase struct {
	store repository.Store
}

// NewGetStoryUseCase creates a new GetStoryUseCase.
func NewGetStoryUseCase(store repository.Store) *GetStoryUseCase {
	return &GetStoryUseCase{store: store}
}

// Execute returns the current draft body for storyID.
func (uc *GetStoryUseCase) Execute(ctx context.Context, storyID string) (*GenerateStoryOutput, error) {
	rec, err := uc.store.GetDraft(ctx, storyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrStoryNotFound()
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load draft", http.StatusInternalServerError)
	}
	return &GenerateStoryOutput{Draft: rec.Draft}, nil
}
