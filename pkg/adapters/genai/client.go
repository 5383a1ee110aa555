// Package genai implements the model client against the Gemini
// generateContent REST API, with structured output constrained by
// response schemas and validated locally before it is accepted.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lablia/docflow/internal/logging"
	"github.com/lablia/docflow/pkg/ports"
)

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Gemini client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Wire types for the generateContent API.
type apiPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *apiInlineData `json:"inline_data,omitempty"`
}

type apiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiRequest struct {
	Contents          []apiContent   `json:"contents"`
	SystemInstruction *apiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  map[string]any `json:"generationConfig,omitempty"`
}

type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []apiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate runs one model call. Routing requests are constrained to the
// offered route names via an enum response schema; structured requests
// are constrained to the output schema and validated locally on return.
func (c *Client) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	rid := uuid.NewString()
	start := time.Now()

	c.logger.Info("genai.generate.start",
		"req_id", rid,
		"model", req.Model,
		"parts", len(req.Content.Parts),
		"structured", req.Schema != nil,
		"routing", len(req.Routes) > 0,
	)

	body := apiRequest{
		Contents: []apiContent{c.buildContent(req)},
	}
	if req.Instruction != "" {
		body.SystemInstruction = &apiContent{Parts: []apiPart{{Text: req.Instruction}}}
	}
	body.GenerationConfig = c.generationConfig(req)

	text, err := c.call(ctx, req.Model, body)
	if err != nil {
		c.logger.Error("genai.generate.http_error",
			"req_id", rid, "err", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ports.GenerateResponse{}, err
	}

	resp, err := c.interpret(req, text)
	if err != nil {
		c.logger.Error("genai.generate.invalid_output",
			"req_id", rid, "err", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ports.GenerateResponse{}, err
	}

	c.logger.Info("genai.generate.ok",
		"req_id", rid,
		"model", req.Model,
		"route", resp.Route,
		"text_len", len(resp.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (c *Client) buildContent(req ports.GenerateRequest) apiContent {
	content := apiContent{Role: "user"}
	for _, part := range req.Content.Parts {
		if part.IsAttachment() {
			content.Parts = append(content.Parts, apiPart{
				InlineData: &apiInlineData{
					MIMEType: part.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(part.Data),
				},
			})
			continue
		}
		if part.Text != "" {
			content.Parts = append(content.Parts, apiPart{Text: part.Text})
		}
	}
	if len(content.Parts) == 0 {
		// The API rejects empty contents; routing-only calls still need
		// a user part.
		content.Parts = []apiPart{{Text: " "}}
	}
	return content
}

func (c *Client) generationConfig(req ports.GenerateRequest) map[string]any {
	cfg := map[string]any{
		"temperature": c.cfg.Temperature,
	}
	switch {
	case len(req.Routes) > 0:
		cfg["responseMimeType"] = "application/json"
		cfg["responseSchema"] = routeSchema(req.Routes)
	case req.Schema != nil:
		cfg["responseMimeType"] = "application/json"
		cfg["responseSchema"] = sanitizeForProvider(req.Schema)
	}
	return cfg
}

// routeSchema constrains the routing answer to exactly one offered name.
func routeSchema(routes []ports.RouteOption) map[string]any {
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.Name
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"route": map[string]any{
				"type": "string",
				"enum": names,
			},
		},
		"required": []string{"route"},
	}
}

func (c *Client) interpret(req ports.GenerateRequest, text string) (ports.GenerateResponse, error) {
	text = strings.TrimSpace(text)

	if len(req.Routes) > 0 {
		var choice struct {
			Route string `json:"route"`
		}
		if err := json.Unmarshal([]byte(text), &choice); err != nil {
			return ports.GenerateResponse{}, fmt.Errorf("decode routing answer: %w", err)
		}
		return ports.GenerateResponse{Route: choice.Route, Text: text}, nil
	}

	if req.Schema != nil {
		if err := validateJSONAgainstSchema(req.Schema, []byte(text)); err != nil {
			return ports.GenerateResponse{}, err
		}
	}
	return ports.GenerateResponse{Text: text}, nil
}

func (c *Client) call(ctx context.Context, model string, body apiRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("genai http error: %w", err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("genai response body close error", "err", err)
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read genai response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", fmt.Errorf("genai status %d: %s", httpResp.StatusCode, raw)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode genai response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in genai response")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
