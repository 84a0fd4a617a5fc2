// Package llm — клиент внешнего сервиса генерации текста.
//
// Поддерживается OpenAI-совместимый протокол chat completions.
// Ответ может прийти как список choices (message.content или text)
// или как плоское поле output_text/text.
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
)

// Значения по умолчанию.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 120
	DefaultTemperature = 0.2
	DefaultTimeout     = 30 * time.Second

	// DefaultSystemPrompt — системное сообщение для запросов, ожидающих JSON.
	DefaultSystemPrompt = "You are a helpful assistant that outputs JSON."
)

// Client — сервис генерации текста.
type Client interface {
	// Complete отправляет prompt и возвращает текст ответа.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest — запрос на генерацию.
type CompletionRequest struct {
	// System — системное сообщение. Пустое — DefaultSystemPrompt.
	System string

	// Prompt — пользовательское сообщение.
	Prompt string

	// MaxTokens — лимит токенов ответа. 0 — значение клиента.
	MaxTokens int
}

// Config — настройки OpenAIClient.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// HTTPClient — для тестов. По умолчанию http.Client с Timeout.
	HTTPClient *http.Client
}

// OpenAIClient — клиент OpenAI-совместимого API.
type OpenAIClient struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	timeout   time.Duration
	http      *http.Client
}

// NewOpenAIClient создаёт клиент. Пустые поля cfg заменяются значениями по умолчанию.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	endpoint := strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIClient{
		apiKey:    cfg.APIKey,
		endpoint:  endpoint,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		http:      httpClient,
	}
}

// Model возвращает имя модели.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
		Text    string       `json:"text"`
	} `json:"choices"`
	OutputText string        `json:"output_text"`
	Text       string        `json:"text"`
	Error      *errorPayload `json:"error,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete реализует Client.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	system := req.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		if decodeErr == nil && parsed.Error != nil {
			apiErr.Type = parsed.Error.Type
			apiErr.Code = parsed.Error.Code
			apiErr.Message = parsed.Error.Message
		}
		return "", apiErr
	}

	if decodeErr != nil {
		// Не JSON — возвращаем тело как есть
		return string(respBody), nil
	}

	if parsed.Error != nil {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Type:       parsed.Error.Type,
			Code:       parsed.Error.Code,
			Message:    parsed.Error.Message,
		}
	}

	return responseText(&parsed, respBody), nil
}

// responseText извлекает текст в порядке: choices[0].message.content,
// choices[0].text, output_text, text, сырое тело.
func responseText(resp *chatResponse, raw []byte) string {
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Message != nil && choice.Message.Content != "" {
			return choice.Message.Content
		}
		if choice.Text != "" {
			return choice.Text
		}
	}
	if resp.OutputText != "" {
		return resp.OutputText
	}
	if resp.Text != "" {
		return resp.Text
	}
	return string(raw)
}
