package domain

import "fmt"

// ValidateContent checks the structural contract of generated story content.
// Content that violates it is treated as a failed generation, never accepted
// into the store.
//
// Rules:
//   - at least one page
//   - page_id unique and non-empty
//   - behavior_anchor valid and non-decreasing across page order
//   - interaction event_key unique across pages (empty allowed for "none")
//   - "choice" interactions carry exactly 2 branch choices, each pointing at
//     an existing page; all other types carry none
func ValidateContent(content *StoryContent) error {
	if content == nil {
		return fmt.Errorf("content is empty")
	}
	if len(content.Pages) == 0 {
		return fmt.Errorf("content has no pages")
	}

	pageIDs := make(map[string]struct{}, len(content.Pages))
	for _, p := range content.Pages {
		if p.PageID == "" {
			return fmt.Errorf("page %d has empty page_id", p.PageNo)
		}
		if _, dup := pageIDs[p.PageID]; dup {
			return fmt.Errorf("duplicate page_id %q", p.PageID)
		}
		pageIDs[p.PageID] = struct{}{}
	}

	eventKeys := make(map[string]string, len(content.Pages))
	prevRank := 0
	for i, p := range content.Pages {
		rank := p.BehaviorAnchor.rank()
		if rank == 0 {
			return fmt.Errorf("page %q has invalid behavior_anchor %q", p.PageID, p.BehaviorAnchor)
		}
		if rank < prevRank {
			return fmt.Errorf(
				"behavior_anchor regresses at page %q (%s after %s)",
				p.PageID, p.BehaviorAnchor, content.Pages[i-1].BehaviorAnchor,
			)
		}
		prevRank = rank

		if key := p.Interaction.EventKey; key != "" {
			if holder, dup := eventKeys[key]; dup {
				return fmt.Errorf("event_key %q reused by pages %q and %q", key, holder, p.PageID)
			}
			eventKeys[key] = p.PageID
		}

		if err := validateBranches(p, pageIDs); err != nil {
			return err
		}
	}

	return nil
}

func validateBranches(p Page, pageIDs map[string]struct{}) error {
	if p.Interaction.Type != InteractionChoice {
		if len(p.BranchChoices) != 0 {
			return fmt.Errorf("page %q is %q but carries branch choices", p.PageID, p.Interaction.Type)
		}
		return nil
	}

	if len(p.BranchChoices) != 2 {
		return fmt.Errorf("choice page %q has %d branch choices, want 2", p.PageID, len(p.BranchChoices))
	}
	for _, c := range p.BranchChoices {
		if _, ok := pageIDs[c.NextPageID]; !ok {
			return fmt.Errorf("choice page %q branches to unknown page %q", p.PageID, c.NextPageID)
		}
	}
	return nil
}
