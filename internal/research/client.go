package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"coachdb/internal/config"
)

// Client talks to a chat-completions research API (Perplexity-compatible).
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg config.Config) (*Client, error) {
	if err := cfg.Require("RESEARCH_API_KEY", cfg.ResearchAPIKey); err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.ResearchAPIBaseURL, "/"),
		apiKey:     cfg.ResearchAPIKey,
		model:      cfg.ResearchModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Complete sends one system+user exchange and returns the answer text plus
// any citations the API attached.
func (c *Client) Complete(ctx context.Context, system, user string) (string, []string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: 1000,
	})
	if err != nil {
		return "", nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(500*(1<<(attempt-1))+rand.Intn(200)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("research api status %d", resp.StatusCode)
				continue
			}
			return "", nil, fmt.Errorf("research api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", nil, err
		}
		if len(parsed.Choices) == 0 {
			return "", nil, errors.New("research api returned no choices")
		}
		return parsed.Choices[0].Message.Content, parsed.Citations, nil
	}

	if lastErr == nil {
		lastErr = errors.New("research request failed")
	}
	return "", nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
