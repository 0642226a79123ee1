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

// AnthropicProvider drives Claude models through the messages API.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewAnthropicProvider(cfg config.AnthropicConfig) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *AnthropicProvider) AnalyzeTranscript(ctx context.Context, transcript string) (*model.AnalysisResult, error) {
	raw, err := p.messages(ctx, anthropicRequest{
		Model:     p.model,
		MaxTokens: 2048,
		System:    analysisSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: analysisUserPrompt(transcript)},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseAnalysis(raw), nil
}

func (p *AnthropicProvider) GenerateNote(ctx context.Context, transcript, template string, analysis *model.AnalysisResult) (string, error) {
	return p.messages(ctx, anthropicRequest{
		Model:     p.model,
		MaxTokens: 4096,
		System:    noteGenerationSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: notePrompt(transcript, template, analysis)},
		},
	})
}

func (p *AnthropicProvider) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return p.messages(ctx, anthropicRequest{
		Model:     p.model,
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	})
}

func (p *AnthropicProvider) messages(ctx context.Context, reqBody anthropicRequest) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("anthropic api key not configured")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build messages request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read messages response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic api returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic api returned no content")
	}
	return parsed.Content[0].Text, nil
}
