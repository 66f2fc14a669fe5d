package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatProvider talks to any OpenAI-compatible /chat/completions endpoint.
// DeepSeek and Groq are configured through it.
type ChatProvider struct {
	Name    string
	BaseURL string
	Model   string
	APIKey  string
	Client  *http.Client
}

var _ Provider = (*ChatProvider)(nil)

func NewDeepSeekProvider(apiKey string) *ChatProvider {
	return &ChatProvider{
		Name:    "DEEPSEEK",
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func NewGroqProvider(apiKey string) *ChatProvider {
	return &ChatProvider{
		Name:    "GROQ",
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama-3.3-70b-versatile",
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ChatProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("%s_API_KEY_MISSING: %w", p.Name, ErrNoAPIKey)
	}

	reqBody := chatRequest{
		Messages:    []Message{{Content: prompt, Role: "user"}},
		Model:       stringOpt(options, OptModel, p.Model),
		MaxTokens:   intOpt(options, OptMaxTokens, 4096),
		Temperature: floatOpt(options, OptTemperature, 0.1),
	}
	if systemPrompt != "" {
		reqBody.Messages = append([]Message{{Content: systemPrompt, Role: "system"}}, reqBody.Messages...)
	}
	if boolOpt(options, OptJSON) {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s_MARSHAL_ERROR: %w", p.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("%s_REQ_CREATE_ERROR: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s_API_CALL_ERROR: %w", p.Name, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%s_READ_BODY_ERROR: %w", p.Name, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s_API_ERROR: status=%d body=%s", p.Name, res.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%s_UNMARSHAL_ERROR: %w", p.Name, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s_NO_CHOICES: %s", p.Name, string(body))
	}
	return response.Choices[0].Message.Content, nil
}

func (p *ChatProvider) AdaptInstructions(raw string) string {
	return raw
}
