package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/model"
)

// OpenAIProvider drives GPT models through the chat completions API.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOpenAIProvider(cfg config.OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) AnalyzeTranscript(ctx context.Context, transcript string) (*model.AnalysisResult, error) {
	req := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: analysisUserPrompt(transcript)},
		},
		Temperature: 0.2,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	raw, err := p.chat(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(raw), nil
}

func (p *OpenAIProvider) GenerateNote(ctx context.Context, transcript, template string, analysis *model.AnalysisResult) (string, error) {
	req := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "system", Content: noteGenerationSystemPrompt},
			{Role: "user", Content: notePrompt(transcript, template, analysis)},
		},
		Temperature: 0.3,
		MaxTokens:   4096,
	}
	return p.chat(ctx, req)
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := []openAIMessage{}
	if systemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: prompt})

	return p.chat(ctx, openAIRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   4096,
	})
}

func (p *OpenAIProvider) chat(ctx context.Context, reqBody openAIRequest) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("openai api key not configured")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai api returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
