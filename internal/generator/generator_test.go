package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

func testRequest() *Request {
	return &Request{
		ChildProfile: &domain.ChildProfile{Nickname: "Momo", Age: 4, Gender: "female"},
		MealContext:  &domain.MealContext{TargetFood: "broccoli", MealScore: 2, SessionMood: "fussy"},
		StoryConfig: &domain.StoryConfig{
			StoryType:          "adventure",
			Difficulty:         "normal",
			Pages:              6,
			InteractiveDensity: "medium",
			Language:           "zh-CN",
		},
	}
}

func storyJSON(t *testing.T) string {
	t.Helper()
	content := domain.StoryContent{
		BookMeta: domain.BookMeta{Title: "Broccoli Forest", ThemeFood: "broccoli"},
		Pages: []domain.Page{
			{PageNo: 1, PageID: "p01", BehaviorAnchor: domain.BehaviorLv1, Text: "t", ImagePrompt: "i",
				Interaction: domain.Interaction{Type: domain.InteractionNone}},
		},
		Ending: domain.Ending{PositiveFeedback: "yay", NextMicroGoal: "one bite"},
	}
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	return string(raw)
}

func completionReply(content string) string {
	raw, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(raw)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestClient_Generate(t *testing.T) {
	var gotReq chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionReply(storyJSON(t))))
	})

	content, err := client.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, "Broccoli Forest", content.BookMeta.Title)
	require.Len(t, content.Pages, 1)

	require.Equal(t, DefaultModel, gotReq.Model)
	require.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	require.InDelta(t, 0.7, gotReq.Temperature, 0.001)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Contains(t, gotReq.Messages[1].Content, "broccoli")
	require.Contains(t, gotReq.Messages[1].Content, "Momo")
	require.NotContains(t, gotReq.Messages[1].Content, "regeneration")
}

func TestClient_Generate_RegenerationNote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Contains(t, req.Messages[1].Content, "regeneration")
		require.Contains(t, req.Messages[1].Content, "too scary")
		require.Contains(t, req.Messages[1].Content, "the green color")
		w.Write([]byte(completionReply(storyJSON(t))))
	})

	req := testRequest()
	req.DissatisfactionReason = "too scary"
	req.DislikeReason = "the green color"
	_, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
}

func TestClient_Generate_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), testRequest())
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeRateLimited, appErr.Code)
	require.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
}

func TestClient_Generate_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), testRequest())
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeGenerationFailed, appErr.Code)
}

func TestClient_Generate_MalformedContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionReply("this is not json")))
	})

	_, err := client.Generate(context.Background(), testRequest())
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeGenerationFailed, appErr.Code)
}

func TestClient_Generate_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), testRequest())
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeGenerationFailed, appErr.Code)
}

func TestBuildUserPrompt_Defaults(t *testing.T) {
	req := testRequest()
	req.MealContext = &domain.MealContext{TargetFood: "carrot"}
	req.StoryConfig.Language = ""

	prompt := buildUserPrompt(req)
	require.Contains(t, prompt, "Simplified Chinese")
	require.Contains(t, prompt, "Mood: neutral")
	require.Contains(t, prompt, "Meal description: Not provided")
	require.Contains(t, prompt, "Meal score (1=terrible, 5=great): Not provided")
}

func TestBuildUserPrompt_English(t *testing.T) {
	req := testRequest()
	req.StoryConfig.Language = "en"
	require.Contains(t, buildUserPrompt(req), "Write all story text in English.")
}
