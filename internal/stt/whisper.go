package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/model"
)

// Result is the speech-to-text output for one audio file.
type Result struct {
	Text     string
	Segments model.Segments
	Language string
}

// Transcriber converts recorded audio into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (*Result, error)
}

// WhisperClient calls the OpenAI audio transcription API with
// verbose_json output so segment timestamps come back.
type WhisperClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewWhisperClient(cfg config.STTConfig) *WhisperClient {
	return &WhisperClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename, language string) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("speech-to-text api key not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("write audio payload: %w", err)
	}

	fields := map[string]string{
		"model":                     c.model,
		"language":                  language,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "segment",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription api returned %d: %s", resp.StatusCode, respBody)
	}

	var parsed whisperResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}

	segments := make(model.Segments, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		segments = append(segments, model.TranscriptSegment{
			StartTime: seg.Start,
			EndTime:   seg.End,
			Text:      seg.Text,
		})
	}

	lang := parsed.Language
	if lang == "" {
		lang = language
	}

	return &Result{
		Text:     parsed.Text,
		Segments: segments,
		Language: lang,
	}, nil
}
