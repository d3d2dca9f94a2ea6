package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the DashScope API root.
const DefaultBaseURL = "https://dashscope.aliyuncs.com"

// DefaultModel is a fast, inexpensive text-to-image model.
const DefaultModel = "wanx2.1-t2i-turbo"

// DefaultSize is 16:9 landscape, matching the reading view.
const DefaultSize = "1024*576"

// Config configures the DashScope client. An empty APIKey yields a disabled
// client rather than an error.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Size         string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client drives DashScope's asynchronous image synthesis flow: submit a
// task, then poll it to completion.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	size         string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

var _ Synthesizer = (*Client)(nil)

// NewClient builds a DashScope client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Size == "" {
		cfg.Size = DefaultSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
		size:         cfg.Size,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type synthesisRequest struct {
	Model string `json:"model"`
	Input struct {
		Prompt string `json:"prompt"`
	} `json:"input"`
	Parameters struct {
		N    int    `json:"n"`
		Size string `json:"size"`
	} `json:"parameters"`
}

type synthesisTask struct {
	Output struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		Results    []struct {
			URL string `json:"url"`
		} `json:"results"`
		Message string `json:"message"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Synthesize submits one synthesis task and polls until it settles.
func (c *Client) Synthesize(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("dashscope: API key is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	taskID, err := c.createTask(ctx, prompt)
	if err != nil {
		return "", err
	}
	return c.pollTask(ctx, taskID)
}

func (c *Client) createTask(ctx context.Context, prompt string) (string, error) {
	var req synthesisRequest
	req.Model = c.model
	req.Input.Prompt = prompt
	req.Parameters.N = 1
	req.Parameters.Size = c.size

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/services/aigc/text2image/image-synthesis", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-DashScope-Async", "enable")

	task, err := c.doTask(httpReq)
	if err != nil {
		return "", err
	}
	if task.Output.TaskID == "" {
		return "", fmt.Errorf("dashscope: no task id in response (%s: %s)", task.Code, task.Message)
	}
	return task.Output.TaskID, nil
}

func (c *Client) pollTask(ctx context.Context, taskID string) (string, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("dashscope: task %s: %w", taskID, ctx.Err())
		case <-ticker.C:
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/api/v1/tasks/"+taskID, nil)
		if err != nil {
			return "", fmt.Errorf("build task request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		task, err := c.doTask(httpReq)
		if err != nil {
			return "", err
		}

		switch task.Output.TaskStatus {
		case "SUCCEEDED":
			if len(task.Output.Results) == 0 || task.Output.Results[0].URL == "" {
				return "", fmt.Errorf("dashscope: task %s succeeded without results", taskID)
			}
			return task.Output.Results[0].URL, nil
		case "FAILED", "CANCELED", "UNKNOWN":
			return "", fmt.Errorf("dashscope: task %s %s: %s", taskID, task.Output.TaskStatus, task.Output.Message)
		default:
			// PENDING or RUNNING, keep polling.
		}
	}
}

func (c *Client) doTask(req *http.Request) (*synthesisTask, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call dashscope: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read dashscope response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dashscope returned %d: %s", resp.StatusCode, string(body))
	}

	var task synthesisTask
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("decode dashscope response: %w", err)
	}
	return &task, nil
}
