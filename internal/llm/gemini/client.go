// Package gemini implements llm.StructuredExtractor against the Google
// Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/llm"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

// ExtractSections builds the master prompt for tmpl, calls generateContent
// with JSON output enforced, validates the response against the template's
// section schema, and decodes it. One attempt, no retry.
func (c *Client) ExtractSections(ctx context.Context, text string, tmpl *template.Template) (llm.Sections, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	prompt, err := llm.BuildMasterPrompt(text, tmpl)
	if err != nil {
		return nil, nil, err
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"template", tmpl.Name,
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"temperature":      c.cfg.Temperature,
			"maxOutputTokens":  c.cfg.MaxTokens,
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, httpErr
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.log.Error("llm.extract.no_candidates",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	content := []byte(strings.TrimSpace(sb.String()))

	schema := llm.BuildSectionsSchema(tmpl)
	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, fmt.Errorf("schema validation failed: %w", err)
	}

	var out llm.Sections
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, fmt.Errorf("unmarshal sections: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"sections", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
