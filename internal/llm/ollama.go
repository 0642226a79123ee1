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

// OllamaProvider drives a local model through the Ollama chat API.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaProvider(cfg config.OllamaConfig) *OllamaProvider {
	return &OllamaProvider{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			// Local models can be slow on first load.
			Timeout: 10 * time.Minute,
		},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

func (p *OllamaProvider) AnalyzeTranscript(ctx context.Context, transcript string) (*model.AnalysisResult, error) {
	raw, err := p.chat(ctx, ollamaRequest{
		Model: p.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: analysisUserPrompt(transcript)},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, err
	}
	return parseAnalysis(raw), nil
}

func (p *OllamaProvider) GenerateNote(ctx context.Context, transcript, template string, analysis *model.AnalysisResult) (string, error) {
	return p.chat(ctx, ollamaRequest{
		Model: p.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: noteGenerationSystemPrompt},
			{Role: "user", Content: notePrompt(transcript, template, analysis)},
		},
		Stream: false,
	})
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := []ollamaMessage{}
	if systemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: prompt})

	return p.chat(ctx, ollamaRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
	})
}

func (p *OllamaProvider) chat(ctx context.Context, reqBody ollamaRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
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
		return "", fmt.Errorf("ollama api returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return parsed.Message.Content, nil
}
