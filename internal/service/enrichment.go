package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/domain"
	"tastebook.io/tastebook/internal/images"
	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/pkg/worker"
	"tastebook.io/tastebook/internal/repository"
)

// Enricher fills page illustrations after a draft has been persisted and
// returned. Enrichment is fire-and-forget: it runs detached from the
// originating request, tolerates per-page failures, and only ever touches
// image_url fields.
type Enricher struct {
	store repository.Store
	synth images.Synthesizer
	pools *worker.Pools
}

// NewEnricher creates an Enricher. synth may be nil when no image provider
// is configured.
func NewEnricher(store repository.Store, synth images.Synthesizer, pools *worker.Pools) *Enricher {
	return &Enricher{store: store, synth: synth, pools: pools}
}

// EnrichAsync schedules illustration generation for a stored draft. It
// returns immediately; callers never observe enrichment errors. Pages are
// fanned out on the synthesis pool, whose capacity bounds concurrent
// provider calls, and the surviving URLs are merged back in a single write.
func (e *Enricher) EnrichAsync(draftID string, pages []domain.Page, globalStyle string) {
	if e.synth == nil || !e.synth.Enabled() {
		logger.Debug("image enrichment skipped: no synthesizer configured",
			zap.String("draft_id", draftID))
		return
	}

	// Snapshot the prompts now; the caller's slice must not be shared with
	// a detached goroutine.
	prompts := make(map[string]string, len(pages))
	for _, p := range pages {
		if p.ImagePrompt != "" {
			prompts[p.PageID] = p.ImagePrompt
		}
	}
	if len(prompts) == 0 {
		return
	}

	err := e.pools.SubmitDetached(worker.PoolGeneral, func(ctx context.Context) {
		e.enrich(ctx, draftID, prompts, globalStyle)
	})
	if err != nil {
		logger.Error("image enrichment not scheduled",
			zap.String("draft_id", draftID), zap.Error(err))
	}
}

func (e *Enricher) enrich(ctx context.Context, draftID string, prompts map[string]string, globalStyle string) {
	var (
		mu   sync.Mutex
		urls = make(map[string]string, len(prompts))
		wg   sync.WaitGroup
	)

	for pageID, prompt := range prompts {
		pageID, prompt := pageID, prompt
		full := prompt
		if globalStyle != "" {
			full = globalStyle + ". " + prompt
		}

		wg.Add(1)
		err := e.pools.Synthesis.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()

			url, err := e.synth.Synthesize(ctx, full)
			if err != nil {
				logger.Warn("page illustration failed",
					zap.String("draft_id", draftID),
					zap.String("page_id", pageID),
					zap.Error(err))
				return
			}
			mu.Lock()
			urls[pageID] = url
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			logger.Warn("page illustration not scheduled",
				zap.String("draft_id", draftID),
				zap.String("page_id", pageID),
				zap.Error(err))
		}
	}
	wg.Wait()

	if len(urls) == 0 {
		logger.Info("image enrichment produced no illustrations",
			zap.String("draft_id", draftID))
		return
	}

	e.merge(ctx, draftID, urls)
}

// merge re-reads the stored draft and applies the URLs by page_id. Reading
// fresh instead of patching the in-memory copy keeps the write correct even
// if the draft body changed since generation.
func (e *Enricher) merge(ctx context.Context, draftID string, urls map[string]string) {
	rec, err := e.store.GetDraft(ctx, draftID)
	if err != nil {
		logger.Error("image enrichment merge: load draft",
			zap.String("draft_id", draftID), zap.Error(err))
		return
	}

	merged := 0
	for i := range rec.Draft.Pages {
		if url, ok := urls[rec.Draft.Pages[i].PageID]; ok {
			rec.Draft.Pages[i].ImageURL = url
			merged++
		}
	}
	if merged == 0 {
		return
	}

	if err := e.store.UpdateDraftContent(ctx, draftID, rec.Draft); err != nil {
		logger.Error("image enrichment merge: update draft",
			zap.String("draft_id", draftID), zap.Error(err))
		return
	}

	logger.Info("image enrichment complete",
		zap.String("draft_id", draftID),
		zap.Int("pages_illustrated", merged),
		zap.Int("pages_requested", len(urls)))
}
