// Package llm calls the OpenAI chat completions API to turn free-form
// text into a structured task breakdown.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vishals9711/task-crafter/internal/apperr"
	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/pkg/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 2 * time.Minute
)

// breakdownSchema constrains the completion to the task breakdown shape.
const breakdownSchema = `{
  "type": "object",
  "properties": {
    "mainTask": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "description": {"type": "string"}
      },
      "required": ["title", "description"],
      "additionalProperties": false
    },
    "subtasks": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"}
        },
        "required": ["title", "description"],
        "additionalProperties": false
      }
    }
  },
  "required": ["mainTask", "subtasks"],
  "additionalProperties": false
}`

// TaskBreakdown is the schema-constrained shape returned by the model.
type TaskBreakdown struct {
	MainTask struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"mainTask"`
	Subtasks []BreakdownSubtask `json:"subtasks"`
}

// BreakdownSubtask is one raw subtask from the model, before ids and
// defaults are applied.
type BreakdownSubtask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Client handles OpenAI chat completions.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewClient creates a new OpenAI client from configuration. The base URL
// override exists for enterprise proxies and tests.
func NewClient(cfg config.OpenAIConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// ExtractTasks asks the model for a main task plus subtasks at the given
// detail level. The response is constrained to the breakdown schema.
func (c *Client) ExtractTasks(ctx context.Context, text string, level models.DetailLevel) (*TaskBreakdown, error) {
	if c.apiKey == "" {
		return nil, apperr.Providerf("OPENAI_API_KEY not set")
	}

	system, ok := systemPrompts[level]
	if !ok {
		system = systemPrompts[models.DetailMedium]
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		MaxTokens:   maxTokensFor(level),
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "TaskExtraction",
				Strict: true,
				Schema: json.RawMessage(breakdownSchema),
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperr.Providerf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Providerf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Providerf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Providerf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return nil, apperr.Providerf("openai api error (status %d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, apperr.Providerf("openai api error: status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, apperr.Providerf("failed to decode response: %v", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, apperr.Providerf("no completion choices returned")
	}

	var breakdown TaskBreakdown
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &breakdown); err != nil {
		return nil, apperr.Providerf("model returned malformed json: %v", err)
	}

	logging.Debug("task extraction completed",
		"model", c.model,
		"detail_level", string(level),
		"subtasks", len(breakdown.Subtasks),
		"total_tokens", chatResp.Usage.TotalTokens)

	return &breakdown, nil
}

// String implements fmt.Stringer without leaking the api key.
func (c *Client) String() string {
	return fmt.Sprintf("llm.Client{model: %s, api_key: %s}", c.model, logging.MaskSensitive(c.apiKey))
}
