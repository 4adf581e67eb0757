package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	summarizeMaxLen = 2000
	responseMaxLen  = 4000
)

// Client calls the external workflow webhooks that back the summarize and
// auto-reply agent features. The webhooks are opaque HTTP dependencies; the
// only contract is a JSON body {"email_content": ...} in and some JSON with
// the generated text out.
type Client struct {
	httpClient   *http.Client
	summarizeURL string
	responseURL  string
}

func NewClient(summarizeURL, responseURL string) *Client {
	return &Client{
		httpClient:   &http.Client{},
		summarizeURL: summarizeURL,
		responseURL:  responseURL,
	}
}

// Summarize sends cleaned email text to the summarization webhook and
// returns the generated summary.
func (c *Client) Summarize(ctx context.Context, emailBody string) (string, error) {
	return c.call(ctx, c.summarizeURL, CleanContent(emailBody, summarizeMaxLen), "No summary returned")
}

// GenerateResponse sends cleaned email text to the auto-reply webhook and
// returns the drafted response.
func (c *Client) GenerateResponse(ctx context.Context, emailBody string) (string, error) {
	return c.call(ctx, c.responseURL, CleanContent(emailBody, responseMaxLen), "No response generated")
}

func (c *Client) call(ctx context.Context, url, content, fallback string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("webhook URL is not configured")
	}

	payload, err := json.Marshal(map[string]string{"email_content": content})
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return extractText(body, fallback), nil
}

// extractText pulls the generated text out of whatever shape the workflow
// returns. Different workflow versions have used different field names, so
// the first non-empty candidate wins.
func extractText(body []byte, fallback string) string {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fallback
	}

	if obj, ok := decoded.(map[string]any); ok {
		for _, key := range []string{"content", "summary", "response", "message", "text"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
	}

	// Some workflows answer with an array of chat-completion messages.
	if arr, ok := decoded.([]any); ok && len(arr) > 0 {
		if obj, ok := arr[0].(map[string]any); ok {
			if msg, ok := obj["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok && s != "" {
					return s
				}
			}
		}
	}

	return fallback
}
