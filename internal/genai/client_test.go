package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestGenerateParsesStructuredResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatReply(`{"items":["Hook one","Hook two","Hook three"]}`))
	})

	res, err := client.Generate(context.Background(), Request{
		Feature: domain.FeatureHooks,
		Product: "glow serum",
		Count:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hook one", "Hook two", "Hook three"}, res.Items)
}

func TestGenerateStripsCodeFence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatReply("```json\n{\"items\":[\"A\",\"B\"]}\n```"))
	})

	res, err := client.Generate(context.Background(), Request{Feature: domain.FeatureCaptions, Product: "mug"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Items)
}

func TestGenerateFallsBackToLineSplitting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatReply("1. First caption\n2. Second caption\n3. Third caption"))
	})

	res, err := client.Generate(context.Background(), Request{Feature: domain.FeatureCaptions, Product: "mug", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"First caption", "Second caption", "Third caption"}, res.Items)
}

func TestGenerateEmptyResponseIsProviderFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatReply("   "))
	})

	_, err := client.Generate(context.Background(), Request{Feature: domain.FeatureHooks, Product: "mug"})
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestGenerateUpstreamErrorIsProviderFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), Request{Feature: domain.FeatureHooks, Product: "mug"})
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestBuildPromptMentionsProductAndLocale(t *testing.T) {
	prompt := buildPrompt(Request{
		Feature: domain.FeatureVideoScript,
		Product: "standing desk",
		Tone:    "playful",
		Locale:  "es",
		Count:   2,
	})
	assert.Contains(t, prompt, "standing desk")
	assert.Contains(t, prompt, "playful")
	assert.Contains(t, prompt, "'es'")
	assert.Contains(t, prompt, "2")
}
