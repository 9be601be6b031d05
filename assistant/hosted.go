package assistant

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

const maxResponseBytes = 1 << 20

// Hosted forwards the prompt to a Hugging Face style inference endpoint.
type Hosted struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewHosted(apiKey, model, baseURL string, timeout time.Duration) *Hosted {
	return &Hosted{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *Hosted) Name() string { return "hosted" }

type inferenceRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (h *Hosted) TryAnswer(ctx context.Context, q Query) (*Answer, error) {
	if h.apiKey == "" || q.Prompt == "" {
		return nil, nil
	}
	body, err := json.Marshal(inferenceRequest{
		Inputs:  q.Prompt,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	text := parseInference(raw)
	if text == "" {
		return nil, nil
	}
	return &Answer{Text: text, Source: h.Name()}, nil
}

var inferenceTextFields = []string{"generated_text", "answer", "summary_text"}

// parseInference accepts a list or a single object and falls back to the raw body.
func parseInference(raw []byte) string {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		if text, ok := textField(list[0]); ok {
			return text
		}
		return strings.TrimSpace(string(raw))
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if text, ok := textField(obj); ok {
			return text
		}
	}
	return strings.TrimSpace(string(raw))
}

func textField(obj map[string]any) (string, bool) {
	for _, field := range inferenceTextFields {
		if s, ok := obj[field].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
