package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

func mustTemplate(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := template.Lookup("Extraction Template 1")
	require.NoError(t, err)
	return tmpl
}

func sectionsPayload(t *testing.T, tmpl *template.Template) string {
	t.Helper()
	payload := map[string]any{}
	for _, name := range tmpl.SheetNames() {
		payload[name] = []map[string]any{
			{tmpl.LabelKey: "Fund Name", tmpl.ValueKey: "Alpha Growth Fund II"},
		}
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(b)
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-2.0-flash-exp",
	}, nil)
}

func TestExtractSections(t *testing.T) {
	tmpl := mustTemplate(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash-exp:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gc, _ := body["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", gc["responseMimeType"])

		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse(sectionsPayload(t, tmpl))))
	})

	sections, raw, err := c.ExtractSections(context.Background(), "report text", tmpl)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	require.Len(t, sections, 4)
	require.Len(t, sections["Fund Data"], 1)
	assert.Equal(t, "Alpha Growth Fund II", sections["Fund Data"][0]["Value - Current Period"])
}

func TestExtractSectionsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, _, err := c.ExtractSections(context.Background(), "text", mustTemplate(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini status 429")
}

func TestExtractSectionsNoCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}}))
	})

	_, _, err := c.ExtractSections(context.Background(), "text", mustTemplate(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestExtractSectionsSchemaMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Model answered with prose instead of the requested object.
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse(`"not an object"`)))
	})

	_, raw, err := c.ExtractSections(context.Background(), "text", mustTemplate(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
	assert.NotEmpty(t, raw, "raw output kept for diagnostics")
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"}, nil)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", c.cfg.BaseURL)
	assert.Equal(t, "gemini-2.0-flash-exp", c.cfg.Model)
	assert.Equal(t, float32(0.1), c.cfg.Temperature)
	assert.Equal(t, 8192, c.cfg.MaxTokens)
	assert.NotNil(t, c.httpClient)
}
