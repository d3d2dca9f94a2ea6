package generator

import (
	"fmt"
	"strings"
)

// systemPrompt fixes the output contract: a single JSON object matching the
// draft content model, with anchor progression and interaction rules the
// validator later enforces.
const systemPrompt = `You are an expert children's interactive storybook writer for a feeding therapy application.

Your task: Generate a complete interactive storybook as a single JSON object.

CRITICAL RULES:
- Return ONLY a JSON object. No markdown, no code fences, no explanation.
- All story text must be in the language specified by the user.
- The food must be portrayed as friendly, magical, and non-threatening.
- The child is always the hero; never shame or pressure them.

OUTPUT JSON STRUCTURE (exact):
{
  "book_meta": {
    "title": "catchy book title",
    "subtitle": "short subtitle",
    "theme_food": "same as input target_food",
    "story_type": "same as input story_type",
    "target_behavior_level": "Lv1 | Lv2 | Lv3",
    "summary": "2-3 sentence story summary",
    "design_logic": "behavioral design rationale (why these interactions help the child)",
    "global_visual_style": "illustration style description"
  },
  "pages": [ ...see PAGE STRUCTURE below... ],
  "ending": {
    "positive_feedback": "warm, specific encouragement for the child",
    "next_micro_goal": "one small achievable next food behavior step"
  }
}

PAGE STRUCTURE (repeat for each page, page_id format: p01, p02, ...):
{
  "page_no": 1,
  "page_id": "p01",
  "behavior_anchor": "Lv1 | Lv2 | Lv3",
  "text": "story text (2-4 sentences, warm, age-appropriate)",
  "image_prompt": "detailed visual description for illustration generation",
  "interaction": {
    "type": "none | tap | choice | drag | mimic | record_voice",
    "instruction": "child-facing instruction text (empty string if type=none)",
    "event_key": "unique_snake_case_key"
  },
  "branch_choices": []
}

For "choice" interactions ONLY, branch_choices must contain exactly 2 items:
[
  {"choice_id": "c1", "label": "option text", "next_page_id": "p0X"},
  {"choice_id": "c2", "label": "option text", "next_page_id": "p0X"}
]
(Both choices may point to the same next page.)
For all other interaction types, branch_choices must be an empty array [].

BEHAVIOR ANCHOR PROGRESSION RULES:
- Lv1 = awareness / observation (first ~1/3 of pages)
- Lv2 = approach / touch / smell (middle pages)
- Lv3 = taste attempt / chew / swallow (last ~1/3 of pages)
- NEVER go backwards (e.g., Lv3 then Lv2 is forbidden)

INTERACTION DISTRIBUTION by density:
- low:    ~70% none, 1-2 tap or choice
- medium: mix of tap, choice, mimic, some none; at least 3 interactive pages
- high:   frequent tap/choice/mimic, at least 1 drag; minimal none pages

EVENT KEY RULES:
- Must be unique across all pages
- snake_case format, descriptive (e.g., "smell_broccoli_p02", "choose_path_p03")`

// buildUserPrompt renders the per-request half of the conversation.
func buildUserPrompt(req *Request) string {
	langInstruction := "Write all story text in English."
	if req.StoryConfig.Language == "" || req.StoryConfig.Language == "zh-CN" {
		langInstruction = "Write ALL story text (title, subtitle, summary, design_logic, page text, instructions, choice labels, ending) in Simplified Chinese (zh-CN)."
	}

	mood := req.MealContext.SessionMood
	if mood == "" {
		mood = "neutral"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate an interactive storybook with these parameters:\n\n")
	fmt.Fprintf(&b, "LANGUAGE: %s\n\n", langInstruction)
	fmt.Fprintf(&b, "CHILD PROFILE:\n")
	fmt.Fprintf(&b, "- Nickname: %s\n", req.ChildProfile.Nickname)
	fmt.Fprintf(&b, "- Age: %d years old\n", req.ChildProfile.Age)
	fmt.Fprintf(&b, "- Gender: %s\n\n", req.ChildProfile.Gender)
	fmt.Fprintf(&b, "MEAL CONTEXT:\n")
	fmt.Fprintf(&b, "- Target food (must be the story theme): %s\n", req.MealContext.TargetFood)
	fmt.Fprintf(&b, "- Meal score (1=terrible, 5=great): %s\n", orNotProvided(scoreString(req.MealContext.MealScore)))
	fmt.Fprintf(&b, "- Mood: %s\n", mood)
	fmt.Fprintf(&b, "- Meal description: %s\n", orNotProvided(req.MealContext.MealText))
	fmt.Fprintf(&b, "- Refusal reason: %s\n\n", orNotProvided(req.MealContext.PossibleReason))
	fmt.Fprintf(&b, "STORY CONFIG:\n")
	fmt.Fprintf(&b, "- Story type: %s\n", req.StoryConfig.StoryType)
	fmt.Fprintf(&b, "- Difficulty: %s\n", req.StoryConfig.Difficulty)
	fmt.Fprintf(&b, "- Number of pages: %d\n", req.StoryConfig.Pages)
	fmt.Fprintf(&b, "- Interactive density: %s\n", req.StoryConfig.InteractiveDensity)
	fmt.Fprintf(&b, "- Must include positive feedback ending: %t\n", req.StoryConfig.MustIncludePositiveFeedback)

	if req.DissatisfactionReason != "" || req.DislikeReason != "" {
		b.WriteString("\nNote: This is a regeneration.")
		if req.DissatisfactionReason != "" {
			fmt.Fprintf(&b, " Previous dissatisfaction reason: %q.", req.DissatisfactionReason)
		}
		if req.DislikeReason != "" {
			fmt.Fprintf(&b, " The child disliked: %q.", req.DislikeReason)
		}
		b.WriteString(" Please address this in the new story.\n")
	}

	b.WriteString("\nReturn ONLY the JSON object now.")
	return b.String()
}

func orNotProvided(v string) string {
	if v == "" {
		return "Not provided"
	}
	return v
}

func scoreString(score int) string {
	if score == 0 {
		return ""
	}
	return fmt.Sprintf("%d", score)
}
