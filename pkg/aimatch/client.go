package aimatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Generator produces text from a prompt with a named model
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// maxResponseBytes bounds how much of an API response is read
const maxResponseBytes = 1 << 20

// GeminiClient calls the generativelanguage generateContent endpoint
type GeminiClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGeminiClient creates a client for baseURL, e.g.
// https://generativelanguage.googleapis.com/v1beta
func NewGeminiClient(baseURL, apiKey string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// StatusError is a non-2xx answer from the API
type StatusError struct {
	Model      string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model %s returned %d: %s", e.Model, e.StatusCode, e.Message)
}

// Generate sends prompt to model and returns the text of the first candidate
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 512,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to model %s failed: %w", model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response from model %s: %w", model, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &StatusError{Model: model, StatusCode: resp.StatusCode, Message: msg}
	}

	if reason := gjson.GetBytes(data, "promptFeedback.blockReason"); reason.Exists() {
		return "", fmt.Errorf("model %s blocked the prompt: %s", model, reason.String())
	}

	var text strings.Builder
	for _, p := range gjson.GetBytes(data, "candidates.0.content.parts.#.text").Array() {
		text.WriteString(p.String())
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("model %s returned no text", model)
	}
	return text.String(), nil
}
