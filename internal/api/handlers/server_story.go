package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
	"tastebook.io/tastebook/internal/usecase"
)

// Wire DTOs for story requests. The bool for the positive-feedback ending is
// a pointer so an omitted field defaults to true instead of false.

type childProfileDTO struct {
	Nickname     string                 `json:"nickname"`
	Age          int                    `json:"age"`
	Gender       string                 `json:"gender"`
	AvatarTraits map[string]interface{} `json:"avatar_traits"`
}

type mealContextDTO struct {
	TargetFood     string `json:"target_food"`
	MealScore      int    `json:"meal_score"`
	MealText       string `json:"meal_text"`
	PossibleReason string `json:"possible_reason"`
	SessionMood    string `json:"session_mood"`
}

type storyConfigDTO struct {
	StoryType                   string `json:"story_type"`
	Difficulty                  string `json:"difficulty"`
	Pages                       int    `json:"pages"`
	InteractiveDensity          string `json:"interactive_density"`
	MustIncludePositiveFeedback *bool  `json:"must_include_positive_feedback"`
	Language                    string `json:"language"`
}

type generateRequest struct {
	ChildProfile   *childProfileDTO       `json:"child_profile" binding:"required"`
	MealContext    *mealContextDTO        `json:"meal_context" binding:"required"`
	StoryConfig    *storyConfigDTO        `json:"story_config" binding:"required"`
	HistoryContext *domain.HistoryContext `json:"history_context"`
}

type regenerateRequest struct {
	PreviousStoryID       string `json:"previous_story_id" binding:"required"`
	TargetFood            string `json:"target_food"`
	StoryType             string `json:"story_type"`
	DissatisfactionReason string `json:"dissatisfaction_reason"`
	DislikeReason         string `json:"dislike_reason"`
}

// PostStoryGenerate handles POST /api/v1/story/generate.
func (s *Server) PostStoryGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.UnprocessableEntity(apperrors.CodeValidationError, err.Error())) //nolint:errcheck
		return
	}

	out, err := s.generateUC.Execute(c.Request.Context(), usecase.GenerateStoryInput{
		ChildProfile:   req.ChildProfile.toDomain(),
		MealContext:    req.MealContext.toDomain(),
		StoryConfig:    req.StoryConfig.toDomain(),
		HistoryContext: req.HistoryContext,
	})
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, out)
}

// PostStoryRegenerate handles POST /api/v1/story/regenerate.
func (s *Server) PostStoryRegenerate(c *gin.Context) {
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.UnprocessableEntity(apperrors.CodeValidationError, err.Error())) //nolint:errcheck
		return
	}

	out, err := s.regenerateUC.Execute(c.Request.Context(), usecase.RegenerateStoryInput{
		PreviousStoryID:       req.PreviousStoryID,
		TargetFood:            req.TargetFood,
		StoryType:             req.StoryType,
		DissatisfactionReason: req.DissatisfactionReason,
		DislikeReason:         req.DislikeReason,
	})
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetStory handles GET /api/v1/story/:story_id. Clients poll this to pick
// up image URLs once enrichment lands.
func (s *Server) GetStory(c *gin.Context) {
	out, err := s.getStoryUC.Execute(c.Request.Context(), c.Param("story_id"))
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, out)
}

func (d *childProfileDTO) toDomain() *domain.ChildProfile {
	if d == nil {
		return nil
	}
	return &domain.ChildProfile{
		Nickname:     d.Nickname,
		Age:          d.Age,
		Gender:       d.Gender,
		AvatarTraits: d.AvatarTraits,
	}
}

func (d *mealContextDTO) toDomain() *domain.MealContext {
	if d == nil {
		return nil
	}
	mood := d.SessionMood
	if mood == "" {
		mood = "neutral"
	}
	return &domain.MealContext{
		TargetFood:     d.TargetFood,
		MealScore:      d.MealScore,
		MealText:       d.MealText,
		PossibleReason: d.PossibleReason,
		SessionMood:    mood,
	}
}

func (d *storyConfigDTO) toDomain() *domain.StoryConfig {
	if d == nil {
		return nil
	}
	cfg := &domain.StoryConfig{
		StoryType:                   d.StoryType,
		Difficulty:                  d.Difficulty,
		Pages:                       d.Pages,
		InteractiveDensity:          d.InteractiveDensity,
		MustIncludePositiveFeedback: true,
		Language:                    d.Language,
	}
	if d.MustIncludePositiveFeedback != nil {
		cfg.MustIncludePositiveFeedback = *d.MustIncludePositiveFeedback
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = "medium"
	}
	if cfg.Pages == 0 {
		cfg.Pages = 8
	}
	if cfg.InteractiveDensity == "" {
		cfg.InteractiveDensity = "medium"
	}
	if cfg.Language == "" {
		cfg.Language = "zh-CN"
	}
	return cfg
}
