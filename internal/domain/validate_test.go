package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func contentPage(no int, id string, anchor BehaviorLevel) Page {
	return Page{
		PageNo:         no,
		PageID:         id,
		BehaviorAnchor: anchor,
		Text:           "text",
		ImagePrompt:    "prompt",
		Interaction:    Interaction{Type: InteractionNone, EventKey: ""},
	}
}

func validContent() *StoryContent {
	return &StoryContent{
		BookMeta: BookMeta{Title: "Broccoli Forest", ThemeFood: "broccoli"},
		Pages: []Page{
			contentPage(1, "p01", BehaviorLv1),
			contentPage(2, "p02", BehaviorLv2),
			contentPage(3, "p03", BehaviorLv3),
		},
		Ending: Ending{PositiveFeedback: "well done", NextMicroGoal: "one bite"},
	}
}

func TestValidateContent_OK(t *testing.T) {
	require.NoError(t, ValidateContent(validContent()))
}

func TestValidateContent_Violations(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *StoryContent)
		wantErr string
	}{
		{
			name:    "nil content",
			mutate:  nil,
			wantErr: "content is empty",
		},
		{
			name:    "no pages",
			mutate:  func(c *StoryContent) { c.Pages = nil },
			wantErr: "no pages",
		},
		{
			name:    "empty page id",
			mutate:  func(c *StoryContent) { c.Pages[1].PageID = "" },
			wantErr: "empty page_id",
		},
		{
			name:    "duplicate page id",
			mutate:  func(c *StoryContent) { c.Pages[2].PageID = "p01" },
			wantErr: "duplicate page_id",
		},
		{
			name:    "invalid anchor",
			mutate:  func(c *StoryContent) { c.Pages[0].BehaviorAnchor = "Lv9" },
			wantErr: "invalid behavior_anchor",
		},
		{
			name: "anchor regression",
			mutate: func(c *StoryContent) {
				c.Pages[1].BehaviorAnchor = BehaviorLv3
				c.Pages[2].BehaviorAnchor = BehaviorLv2
			},
			wantErr: "regresses",
		},
		{
			name: "duplicate event key",
			mutate: func(c *StoryContent) {
				c.Pages[0].Interaction = Interaction{Type: InteractionTap, EventKey: "tap_food"}
				c.Pages[1].Interaction = Interaction{Type: InteractionTap, EventKey: "tap_food"}
			},
			wantErr: "event_key",
		},
		{
			name: "choice with one branch",
			mutate: func(c *StoryContent) {
				c.Pages[1].Interaction = Interaction{Type: InteractionChoice, EventKey: "choose"}
				c.Pages[1].BranchChoices = []BranchChoice{{ChoiceID: "c1", Label: "go", NextPageID: "p03"}}
			},
			wantErr: "branch choices, want 2",
		},
		{
			name: "choice branching to unknown page",
			mutate: func(c *StoryContent) {
				c.Pages[1].Interaction = Interaction{Type: InteractionChoice, EventKey: "choose"}
				c.Pages[1].BranchChoices = []BranchChoice{
					{ChoiceID: "c1", Label: "left", NextPageID: "p03"},
					{ChoiceID: "c2", Label: "right", NextPageID: "p99"},
				}
			},
			wantErr: "unknown page",
		},
		{
			name: "non-choice carrying branches",
			mutate: func(c *StoryContent) {
				c.Pages[0].BranchChoices = []BranchChoice{
					{ChoiceID: "c1", Label: "a", NextPageID: "p02"},
					{ChoiceID: "c2", Label: "b", NextPageID: "p02"},
				}
			},
			wantErr: "carries branch choices",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var content *StoryContent
			if tc.mutate != nil {
				content = validContent()
				tc.mutate(content)
			}
			err := ValidateContent(content)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateContent_EqualAnchorsAllowed(t *testing.T) {
	content := validContent()
	content.Pages[1].BehaviorAnchor = BehaviorLv1
	content.Pages[2].BehaviorAnchor = BehaviorLv1
	require.NoError(t, ValidateContent(content))
}

func TestValidateContent_BothChoicesSamePage(t *testing.T) {
	content := validContent()
	content.Pages[0].Interaction = Interaction{Type: InteractionChoice, EventKey: "choose_path"}
	content.Pages[0].BranchChoices = []BranchChoice{
		{ChoiceID: "c1", Label: "hop", NextPageID: "p02"},
		{ChoiceID: "c2", Label: "skip", NextPageID: "p02"},
	}
	require.NoError(t, ValidateContent(content))
}

func TestFeedbackValidate(t *testing.T) {
	testCases := []struct {
		name    string
		fb      Feedback
		wantErr bool
	}{
		{"completed with try level", Feedback{SessionID: "s", Status: SessionCompleted, TryLevel: "taste"}, false},
		{"completed without try level", Feedback{SessionID: "s", Status: SessionCompleted}, true},
		{"aborted with reason", Feedback{SessionID: "s", Status: SessionAborted, AbortReason: "tired"}, false},
		{"aborted without reason", Feedback{SessionID: "s", Status: SessionAborted}, true},
		{"invalid status", Feedback{SessionID: "s", Status: SessionReading, TryLevel: "taste"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fb.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTelemetryEventValidate(t *testing.T) {
	ev := TelemetryEvent{EventID: "ev-1", SessionID: "ss-1", EventType: "page_view"}
	require.NoError(t, ev.Validate())

	for _, tc := range []struct {
		name   string
		mutate func(e *TelemetryEvent)
	}{
		{"missing event id", func(e *TelemetryEvent) { e.EventID = "" }},
		{"missing session id", func(e *TelemetryEvent) { e.SessionID = "" }},
		{"missing event type", func(e *TelemetryEvent) { e.EventType = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bad := ev
			tc.mutate(&bad)
			require.Error(t, bad.Validate())
		})
	}
}
