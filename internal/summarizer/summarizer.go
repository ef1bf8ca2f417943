package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zoobzio/clockz"

	"fleetwatch/internal/domain"
)

const (
	defaultURL   = "https://api.deepseek.com/v1/chat/completions"
	defaultModel = "deepseek-chat"
	cacheSize    = 500
	cacheTTL     = 5 * time.Minute
	maxAttempts  = 3

	systemPrompt = "You are a fleet management assistant. Analyze fleet tracking events, " +
		"aggregate and summarize alerts by severity and frequency, and provide " +
		"actionable insights for a fleet manager."
)

// Client summarizes a serialized alert list through an OpenAI-compatible
// chat-completions API. The remote call is treated as slow and
// unreliable: rate-limit responses are retried with backoff and any
// terminal failure falls back to a local count-based summary, so the
// caller always gets text back. Responses are cached by input for a few
// minutes since dashboards poll with identical alert sets.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	cache      *expirable.LRU[string, string]
	clock      clockz.Clock
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		url:        defaultURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
	}
}

// WithEndpoint overrides the API URL and model.
func (c *Client) WithEndpoint(url, model string) *Client {
	if url != "" {
		c.url = url
	}
	if model != "" {
		c.model = model
	}
	return c
}

// WithClock sets the backoff clock. Defaults to the real clock.
func (c *Client) WithClock(clock clockz.Clock) *Client {
	c.clock = clock
	return c
}

func (c *Client) getClock() clockz.Clock {
	if c.clock == nil {
		return clockz.RealClock
	}
	return c.clock
}

// Summarize returns a text summary for a JSON-serialized array of alert
// events. The error is non-nil only when the context is cancelled.
func (c *Client) Summarize(ctx context.Context, eventsJSON string) (string, error) {
	if cached, ok := c.cache.Get(eventsJSON); ok {
		return cached, nil
	}

	summary := c.remoteWithRetry(ctx, eventsJSON)
	if summary == "" {
		summary = LocalSummary(eventsJSON)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.cache.Add(eventsJSON, summary)
	return summary, nil
}

func (c *Client) remoteWithRetry(ctx context.Context, eventsJSON string) string {
	if c.apiKey == "" {
		return ""
	}
	clock := c.getClock()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		summary, status, err := c.callRemote(ctx, eventsJSON)
		if err == nil {
			return summary
		}
		if status != http.StatusTooManyRequests || attempt == maxAttempts {
			slog.Warn("summarizer call failed, using local fallback",
				"attempt", attempt, "error", err)
			return ""
		}
		backoff := time.Duration(1<<attempt) * time.Second
		slog.Warn("summarizer rate limited, backing off",
			"attempt", attempt, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ""
		case <-clock.After(backoff):
		}
	}
	return ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) callRemote(ctx context.Context, eventsJSON string) (summary string, status int, err error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Events: %s\n\nSummary:", eventsJSON)},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("summarizer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("summarizer API status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", resp.StatusCode, fmt.Errorf("empty summarizer response")
	}
	return parsed.Choices[0].Message.Content, 0, nil
}

// LocalSummary counts events by type and severity. It is the always-
// available fallback when no API key is configured or the remote call
// fails.
func LocalSummary(eventsJSON string) string {
	var events []domain.Event
	if err := json.Unmarshal([]byte(eventsJSON), &events); err != nil {
		return "Unable to parse events for summarization."
	}
	if len(events) == 0 {
		return "No alerts detected."
	}

	byType := make(map[string]int)
	bySeverity := make(map[string]int)
	for _, ev := range events {
		byType[string(ev.Type)]++
		switch ev.Data.Severity {
		case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
			bySeverity[string(ev.Data.Severity)]++
		default:
			bySeverity["unknown"]++
		}
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if byType[types[i]] != byType[types[j]] {
			return byType[types[i]] > byType[types[j]]
		}
		return types[i] < types[j]
	})
	if len(types) > 5 {
		types = types[:5]
	}
	topTypes := ""
	for i, t := range types {
		if i > 0 {
			topTypes += ", "
		}
		topTypes += fmt.Sprintf("%s: %d", t, byType[t])
	}

	sevSummary := ""
	for _, sev := range []string{"low", "medium", "high", "unknown"} {
		if bySeverity[sev] == 0 {
			continue
		}
		if sevSummary != "" {
			sevSummary += ", "
		}
		sevSummary += fmt.Sprintf("%s: %d", sev, bySeverity[sev])
	}

	return fmt.Sprintf(
		"Fleet Alert Summary: %d total events. Top issues: %s. Severity breakdown: %s. "+
			"Action: Review high-severity items immediately.",
		len(events), topTypes, sevSummary)
}
