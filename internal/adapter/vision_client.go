package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const visionBaseURL = "https://api.openai.com/v1"

const labelScanPrompt = `You are a sommelier's assistant. Extract wine details from this label photo.
Respond with only a JSON object with these keys (use null when unreadable):
producer, wine_name, vintage (integer), wine_type (red/white/rose/sparkling/dessert),
region, grapes (array of strings), alcohol_content (number),
confidence (object mapping each extracted key to a 0-1 score).`

// LabelScanResult holds structured fields read off a wine label photo
type LabelScanResult struct {
	Producer       *string            `json:"producer"`
	WineName       *string            `json:"wine_name"`
	Vintage        *int               `json:"vintage"`
	WineType       *string            `json:"wine_type"`
	Region         *string            `json:"region"`
	Grapes         []string           `json:"grapes"`
	AlcoholContent *float64           `json:"alcohol_content"`
	Confidence     map[string]float64 `json:"confidence"`
}

// OverallConfidence averages the per-field confidence scores the model
// reported. Zero when the model reported none.
func (r *LabelScanResult) OverallConfidence() float64 {
	if len(r.Confidence) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Confidence {
		sum += v
	}
	return sum / float64(len(r.Confidence))
}

// VisionClient parses wine labels via the OpenAI vision API
type VisionClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewVisionClient creates a new vision client
func NewVisionClient(apiKey, model string) (*VisionClient, error) {
	if apiKey == "" {
		return nil, errors.New("vision api key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &VisionClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: visionBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseLabel sends a base64-encoded label image to the vision model and
// returns the structured fields it read. One call, no retries.
func (c *VisionClient) ParseLabel(ctx context.Context, imageBase64 string) (*LabelScanResult, error) {
	if imageBase64 == "" {
		return nil, errors.New("image data is required")
	}

	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": labelScanPrompt},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": "data:image/jpeg;base64," + imageBase64,
						},
					},
				},
			},
		},
		"temperature": 0.1,
		"max_tokens":  500,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision api returned status %d", resp.StatusCode)
	}

	var envelope chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return nil, errors.New("vision api returned no choices")
	}

	cleaned := cleanModelJSON(envelope.Choices[0].Message.Content)

	var result LabelScanResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to parse label fields: %w", err)
	}
	return &result, nil
}

// DisabledLabelParser stands in when no vision API key is configured
type DisabledLabelParser struct{}

// ParseLabel always reports that label scanning is unavailable
func (DisabledLabelParser) ParseLabel(ctx context.Context, imageBase64 string) (*LabelScanResult, error) {
	return nil, errors.New("label scanning is not configured")
}

// cleanModelJSON strips markdown code fences the model sometimes wraps
// around its JSON output.
func cleanModelJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
