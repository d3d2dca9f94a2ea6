package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"tastebook.io/tastebook/internal/domain"
	"tastebook.io/tastebook/internal/generator"
)

// FakeGenerator is a scripted generator.ContentGenerator. It records every
// request and returns the configured content or error.
type FakeGenerator struct {
	mu       sync.Mutex
	requests []*generator.Request

	Content *domain.StoryContent
	Err     error
}

// StoryContent returns a minimal valid three-page story for food.
func StoryContent(food string) *domain.StoryContent {
	return &domain.StoryContent{
		BookMeta: domain.BookMeta{
			Title:             fmt.Sprintf("The %s Adventure", food),
			ThemeFood:         food,
			GlobalVisualStyle: "soft watercolor",
		},
		Pages: []domain.Page{
			{
				PageNo:         1,
				PageID:         "p01",
				BehaviorAnchor: domain.BehaviorLv1,
				Text:           "Momo notices something green.",
				ImagePrompt:    "a curious child looking at " + food,
				Interaction:    domain.Interaction{Type: domain.InteractionNone},
			},
			{
				PageNo:         2,
				PageID:         "p02",
				BehaviorAnchor: domain.BehaviorLv2,
				Text:           "Momo leans in for a sniff.",
				ImagePrompt:    "a child smelling " + food,
				Interaction: domain.Interaction{
					Type:        domain.InteractionTap,
					Instruction: "Tap the food!",
					EventKey:    "tap_food_p02",
				},
			},
			{
				PageNo:         3,
				PageID:         "p03",
				BehaviorAnchor: domain.BehaviorLv3,
				Text:           "Momo takes a tiny bite.",
				ImagePrompt:    "a child tasting " + food,
				Interaction: domain.Interaction{
					Type:        domain.InteractionMimic,
					Instruction: "Pretend to take a bite!",
					EventKey:    "mimic_bite_p03",
				},
			},
		},
		Ending: domain.Ending{
			PositiveFeedback: "You were so brave!",
			NextMicroGoal:    "Try one small bite tomorrow.",
		},
	}
}

// NewFakeGenerator returns a generator that always succeeds with content.
func NewFakeGenerator(content *domain.StoryContent) *FakeGenerator {
	return &FakeGenerator{Content: content}
}

// Generate implements generator.ContentGenerator.
func (g *FakeGenerator) Generate(_ context.Context, req *generator.Request) (*domain.StoryContent, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.Err != nil {
		return nil, g.Err
	}
	// Copy so callers mutating the result cannot corrupt later generations.
	content := *g.Content
	content.Pages = append([]domain.Page(nil), g.Content.Pages...)
	return &content, nil
}

// Requests returns the recorded generation requests.
func (g *FakeGenerator) Requests() []*generator.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*generator.Request(nil), g.requests...)
}

// FakeSynthesizer is a scripted images.Synthesizer. FailPrompts lists
// prompts (by substring) that should fail; everything else returns a
// deterministic URL derived from the prompt.
type FakeSynthesizer struct {
	Disabled    bool
	FailPrompts []string

	calls atomic.Int32

	mu      sync.Mutex
	inUse   int32
	maxSeen int32
}

// Enabled implements images.Synthesizer.
func (s *FakeSynthesizer) Enabled() bool {
	return !s.Disabled
}

// Synthesize implements images.Synthesizer.
func (s *FakeSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	s.calls.Add(1)

	s.mu.Lock()
	s.inUse++
	if s.inUse > s.maxSeen {
		s.maxSeen = s.inUse
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inUse--
		s.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	for _, fail := range s.FailPrompts {
		if fail != "" && strings.Contains(prompt, fail) {
			return "", fmt.Errorf("synthesis failed for %q", prompt)
		}
	}
	return "https://img.test/" + slug(prompt), nil
}

// Calls returns how many times Synthesize was invoked.
func (s *FakeSynthesizer) Calls() int {
	return int(s.calls.Load())
}

// MaxConcurrent returns the peak number of simultaneous Synthesize calls.
func (s *FakeSynthesizer) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.maxSeen)
}

func slug(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s) && len(out) < 24; i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		case c == ' ':
			out = append(out, '-')
		}
	}
	return string(out)
}
