package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebSearch queries the DuckDuckGo instant answer API.
type WebSearch struct {
	baseURL string
	client  *http.Client
}

func NewWebSearch(baseURL string, timeout time.Duration) *WebSearch {
	return &WebSearch{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (w *WebSearch) Name() string { return "web_search" }

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (w *WebSearch) TryAnswer(ctx context.Context, q Query) (*Answer, error) {
	if q.Prompt == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("q", q.Prompt)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned %d", resp.StatusCode)
	}

	var data instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding web search response: %w", err)
	}

	text := strings.TrimSpace(data.AbstractText)
	if text == "" {
		for _, topic := range data.RelatedTopics {
			if t := strings.TrimSpace(topic.Text); t != "" {
				text = t
				break
			}
		}
	}
	if text == "" {
		return nil, nil
	}
	return &Answer{Text: text, Source: w.Name()}, nil
}
