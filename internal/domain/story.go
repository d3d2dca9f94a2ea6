// Package domain provides domain models for TasteBook.
//
// External collaborators (content model, image provider, store) consume and
// return these types only; provider wire formats never leak past their
// client packages.
package domain

import "time"

// SchemaVersion is the draft envelope version an external renderer depends on.
const SchemaVersion = "story-1.0.0"

// RegenLimit is the per-source-draft regeneration quota: one draft can seed
// at most this many children over its lifetime.
const RegenLimit = 2

// ChildProfile describes the reader the story is generated for.
type ChildProfile struct {
	Nickname     string                 `json:"nickname"`
	Age          int                    `json:"age"`
	Gender       string                 `json:"gender,omitempty"`
	AvatarTraits map[string]interface{} `json:"avatar_traits,omitempty"`
}

// MealContext captures the meal observation that motivates the story.
type MealContext struct {
	TargetFood     string `json:"target_food"`
	MealScore      int    `json:"meal_score,omitempty"`
	MealText       string `json:"meal_text,omitempty"`
	PossibleReason string `json:"possible_reason,omitempty"`
	SessionMood    string `json:"session_mood,omitempty"`
}

// StoryConfig controls story shape and tone.
type StoryConfig struct {
	StoryType                   string `json:"story_type"`
	Difficulty                  string `json:"difficulty,omitempty"`
	Pages                       int    `json:"pages,omitempty"`
	InteractiveDensity          string `json:"interactive_density,omitempty"`
	MustIncludePositiveFeedback bool   `json:"must_include_positive_feedback,omitempty"`
	Language                    string `json:"language,omitempty"`
}

// HistoryContext carries prior-story hints from the client. Accepted on the
// wire for forward compatibility; the current prompt does not use it.
type HistoryContext struct {
	PreviousSummaries []string `json:"previous_summaries,omitempty"`
	UsedStoryTypes    []string `json:"used_story_types,omitempty"`
}

// BehaviorLevel is a feeding-therapy behavior anchor. Pages progress
// Lv1 (awareness) → Lv2 (approach) → Lv3 (taste attempt), never backwards.
type BehaviorLevel string

const (
	BehaviorLv1 BehaviorLevel = "Lv1"
	BehaviorLv2 BehaviorLevel = "Lv2"
	BehaviorLv3 BehaviorLevel = "Lv3"
)

// rank orders behavior levels for progression checks; unknown levels rank 0.
func (b BehaviorLevel) rank() int {
	switch b {
	case BehaviorLv1:
		return 1
	case BehaviorLv2:
		return 2
	case BehaviorLv3:
		return 3
	default:
		return 0
	}
}

// BookMeta is the generated book-level metadata.
type BookMeta struct {
	Title               string `json:"title"`
	Subtitle            string `json:"subtitle,omitempty"`
	ThemeFood           string `json:"theme_food"`
	StoryType           string `json:"story_type,omitempty"`
	TargetBehaviorLevel string `json:"target_behavior_level,omitempty"`
	Summary             string `json:"summary,omitempty"`
	DesignLogic         string `json:"design_logic,omitempty"`
	GlobalVisualStyle   string `json:"global_visual_style,omitempty"`
}

// InteractionType enumerates page interaction descriptors.
const (
	InteractionNone        = "none"
	InteractionTap         = "tap"
	InteractionChoice      = "choice"
	InteractionDrag        = "drag"
	InteractionMimic       = "mimic"
	InteractionRecordVoice = "record_voice"
)

// Interaction describes how the reader engages with a page.
type Interaction struct {
	Type        string `json:"type"`
	Instruction string `json:"instruction"`
	EventKey    string `json:"event_key"`
}

// BranchChoice is one option of a choice interaction.
type BranchChoice struct {
	ChoiceID   string `json:"choice_id"`
	Label      string `json:"label"`
	NextPageID string `json:"next_page_id"`
}

// Page is a single storybook page. Page identity and ordering are fixed at
// creation; enrichment may only fill ImageURL afterwards.
type Page struct {
	PageNo         int            `json:"page_no"`
	PageID         string         `json:"page_id"`
	BehaviorAnchor BehaviorLevel  `json:"behavior_anchor"`
	Text           string         `json:"text"`
	ImagePrompt    string         `json:"image_prompt"`
	ImageURL       string         `json:"image_url,omitempty"`
	Interaction    Interaction    `json:"interaction"`
	BranchChoices  []BranchChoice `json:"branch_choices"`
}

// Ending closes the book with encouragement and a next step.
type Ending struct {
	PositiveFeedback string `json:"positive_feedback"`
	NextMicroGoal    string `json:"next_micro_goal"`
}

// StoryContent is the opaque content model output: book metadata, ordered
// pages, and an ending. It carries no lifecycle metadata.
type StoryContent struct {
	BookMeta BookMeta `json:"book_meta"`
	Pages    []Page   `json:"pages"`
	Ending   Ending   `json:"ending"`
}

// TelemetrySuggestions hints the client which events to report.
type TelemetrySuggestions struct {
	RecommendedEvents []string `json:"recommended_events"`
}

// Draft is the versioned storybook artifact returned to callers and stored
// as the draft body. SchemaVersion, StoryID and GeneratedAt are immutable.
type Draft struct {
	SchemaVersion string    `json:"schema_version"`
	StoryID       string    `json:"story_id"`
	GeneratedAt   time.Time `json:"generated_at"`

	// Generation inputs, kept on the draft so a regeneration can carry the
	// context forward without the caller resending it.
	ChildProfile *ChildProfile `json:"child_profile,omitempty"`
	MealContext  *MealContext  `json:"meal_context,omitempty"`
	StoryConfig  *StoryConfig  `json:"story_config,omitempty"`

	BookMeta BookMeta `json:"book_meta"`
	Pages    []Page   `json:"pages"`
	Ending   Ending   `json:"ending"`

	TelemetrySuggestions TelemetrySuggestions `json:"telemetry_suggestions"`
}

// DraftRecord is the stored draft row: lineage columns plus the draft body.
// RegenCount counts regenerations performed FROM this draft, not inherited
// by children, and only ever increases.
type DraftRecord struct {
	DraftID       string
	ParentDraftID string
	RegenCount    int
	Draft         *Draft
	CreatedAt     time.Time
}
