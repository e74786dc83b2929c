package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client generates structured JSON from extraction prompts. Implementations
// must be safe for sequential reuse across pages within one enrichment run.
type Client interface {
	// GenerateJSON runs the prompt on the model configured for the task and
	// returns the response body with any markdown fencing stripped.
	GenerateJSON(ctx context.Context, prompt string, task Task) (string, error)
	// ModelFor reports which model a task would run on.
	ModelFor(task Task) string
	// Close releases the underlying API connection.
	Close() error
}

// NewClient creates a Gemini-backed Client. A nil config uses the packaged
// task-to-model defaults.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	return NewGeminiClient(ctx, config, apiKey)
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient dials the Gemini API with the given key.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateJSON runs the prompt in JSON response mode on the task's model.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, task Task) (string, error) {
	modelName := c.config.ModelFor(task)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for task %s", task)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.config.Temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}

	// JSON mode usually keeps fencing out; strip it anyway for the
	// occasional response that wraps the body.
	return CleanJSONBlock(text), nil
}

// ModelFor reports which model a task would run on.
func (c *GeminiClient) ModelFor(task Task) string {
	return c.config.ModelFor(task)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("model response has no content")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("model response has no text parts")
	}

	return sb.String(), nil
}
