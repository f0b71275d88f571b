// Package genai talks to an OpenAI-compatible chat-completions endpoint to
// produce short-form marketing copy. The upstream is treated as unreliable:
// responses are requested as JSON but parsed leniently, falling back to
// line-splitting when the model ignores the format.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

const defaultTimeout = 20 * time.Second
const defaultModel = "gpt-4o-mini"
const defaultBaseURL = "https://api.openai.com/v1"

// Options configures the client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client is a thin generation-service client.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New validates options and builds a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("genai: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Request describes one generation.
type Request struct {
	Feature domain.Feature
	Product string
	Tone    string
	Locale  string
	Count   int
}

// Result carries the generated variants.
type Result struct {
	Items []string
	Model string
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type itemsPayload struct {
	Items []string `json:"items"`
}

// Generate produces copy variants for the request. Transport failures map to
// domain.ErrProviderFailure; malformed model output is recovered with lenient
// parsing and only surfaces as an error when even that yields nothing.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	payload := chatRequest{
		Model:          c.model,
		Temperature:    0.8,
		ResponseFormat: &chatFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: `You are a short-form video marketing copywriter. Respond strictly with JSON matching {"items": string[]}.`},
			{Role: "user", Content: buildPrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", domain.ErrProviderFailure)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrProviderFailure)
	}

	items := parseItems(text, req.Count)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: unparseable response", domain.ErrProviderFailure)
	}
	return &Result{Items: items, Model: c.model}, nil
}

func buildPrompt(req Request) string {
	count := req.Count
	if count <= 0 {
		count = 3
	}
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}
	sb := &strings.Builder{}
	switch req.Feature {
	case domain.FeatureHooks:
		fmt.Fprintf(sb, "Write %d scroll-stopping opening hooks for a TikTok video about %q.", count, req.Product)
	case domain.FeatureCaptions:
		fmt.Fprintf(sb, "Write %d short TikTok captions for %q, each under 150 characters.", count, req.Product)
	case domain.FeatureHashtags:
		fmt.Fprintf(sb, "Produce %d hashtag sets for a TikTok post about %q, each set as one string of 5-8 hashtags.", count, req.Product)
	case domain.FeatureVideoScript:
		fmt.Fprintf(sb, "Write %d complete 30-second TikTok video scripts selling %q, with spoken lines and shot directions.", count, req.Product)
	case domain.FeatureAdCopy:
		fmt.Fprintf(sb, "Write %d variants of paid ad copy for %q suited to TikTok Spark Ads.", count, req.Product)
	default:
		fmt.Fprintf(sb, "Write %d short marketing copy variants for %q.", count, req.Product)
	}
	if req.Tone != "" {
		fmt.Fprintf(sb, " Tone: %s.", req.Tone)
	}
	fmt.Fprintf(sb, " Use locale '%s'. Respond strictly as JSON: {\"items\": string[]}.", locale)
	return sb.String()
}

func parseItems(raw string, want int) []string {
	cleaned := extractJSONFragment(raw)
	if cleaned != "" {
		var payload itemsPayload
		if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
			if items := normalizeItems(payload.Items); len(items) > 0 {
				return items
			}
		}
		// Some models return a bare array instead of the wrapped object.
		var bare []string
		if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
			if items := normalizeItems(bare); len(items) > 0 {
				return items
			}
		}
	}
	return splitLines(raw, want)
}

// splitLines is the last-resort parser for free-text responses: one item per
// non-empty line, list markers stripped.
func splitLines(raw string, want int) []string {
	var items []string
	for _, line := range strings.Split(trimCodeFence(raw), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.Trim(line, `"`)
		line = strings.TrimSuffix(line, ",")
		if line == "" || line == "{" || line == "}" || line == "[" || line == "]" {
			continue
		}
		items = append(items, line)
		if want > 0 && len(items) == want {
			break
		}
	}
	return items
}

func normalizeItems(items []string) []string {
	var out []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(trimCodeFence(raw))
	if text == "" {
		return ""
	}
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(text[start : end+1])
	}
	return ""
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
