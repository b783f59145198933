package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"techstack-mentor-backend/internal/metrics"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// Client — клиент OpenAI Chat Completions API.
type Client struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	baseURL     string
	client      *http.Client
	metrics     *metrics.Metrics // может быть nil — тогда вызовы не учитываются
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Config содержит настройки клиента OpenAI.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Metrics     *metrics.Metrics
}

// NewClient создает клиент OpenAI.
func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		baseURL:     chatCompletionsURL,
		client: &http.Client{
			Timeout: 120 * time.Second, // Увеличенный таймаут для сложных запросов
		},
		metrics: cfg.Metrics,
	}
}

// countCall учитывает выполненный вызов OpenAI API в метриках.
func (c *Client) countCall(success bool) {
	if c.metrics != nil {
		c.metrics.IncrementAPICall(success)
	}
}

// chat выполняет запрос к OpenAI и возвращает текст первого ответа.
func (c *Client) chat(ctx context.Context, messages []chatMessage) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.countCall(false)
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countCall(false)
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.countCall(false)
		return "", fmt.Errorf("OpenAI API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		c.countCall(false)
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if chatResp.Error != nil {
		c.countCall(false)
		return "", fmt.Errorf("OpenAI API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		c.countCall(false)
		return "", fmt.Errorf("no choices returned from OpenAI API")
	}

	c.countCall(true)
	return chatResp.Choices[0].Message.Content, nil
}

// cleanJSONResponse удаляет markdown форматирование из ответа модели.
func cleanJSONResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
