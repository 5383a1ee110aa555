package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/ports"
	"github.com/lablia/docflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(t *testing.T, req apiRequest) string) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		answer := handler(t, req)

		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{map[string]any{"text": answer}},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	return srv, client
}

func TestGenerate_PlainText(t *testing.T) {
	_, client := newTestServer(t, func(t *testing.T, req apiRequest) string {
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "responda em tópicos", req.SystemInstruction.Parts[0].Text)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		return "uma resposta"
	})

	resp, err := client.Generate(context.Background(), ports.GenerateRequest{
		Model:       "gemini-2.5-flash",
		Instruction: "responda em tópicos",
		Content: domain.Content{Parts: []domain.Part{
			{Text: "olá"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "uma resposta", resp.Text)
	assert.Empty(t, resp.Route)
}

func TestGenerate_AttachmentInlineData(t *testing.T) {
	pdf := []byte("%PDF-1.7 data")
	_, client := newTestServer(t, func(t *testing.T, req apiRequest) string {
		require.Len(t, req.Contents[0].Parts, 2)
		inline := req.Contents[0].Parts[1].InlineData
		require.NotNil(t, inline)
		assert.Equal(t, "application/pdf", inline.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), inline.Data)
		return "ok"
	})

	_, err := client.Generate(context.Background(), ports.GenerateRequest{
		Model: "gemini-2.5-flash",
		Content: domain.Content{Parts: []domain.Part{
			{Text: "extraia"},
			{Data: pdf, MIMEType: "application/pdf", Name: "doc.pdf"},
		}},
	})
	require.NoError(t, err)
}

func TestGenerate_RoutingConstrainedToEnum(t *testing.T) {
	_, client := newTestServer(t, func(t *testing.T, req apiRequest) string {
		// The route names must be offered as an enum constraint.
		cfg := req.GenerationConfig
		assert.Equal(t, "application/json", cfg["responseMimeType"])
		raw, _ := json.Marshal(cfg["responseSchema"])
		assert.Contains(t, string(raw), "cnh_pipeline")
		assert.Contains(t, string(raw), "rg_pipeline")
		return `{"route": "cnh_pipeline"}`
	})

	resp, err := client.Generate(context.Background(), ports.GenerateRequest{
		Model:       "gemini-2.5-flash",
		Instruction: "escolha o agente",
		Routes: []ports.RouteOption{
			{Name: "cnh_pipeline", Description: "CNH"},
			{Name: "rg_pipeline", Description: "RG"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cnh_pipeline", resp.Route)
}

func TestGenerate_StructuredOutputValidated(t *testing.T) {
	def := schema.New("CNHdata",
		schema.String("tipo_do_documento", ""),
		schema.String("nome_completo", ""),
	)

	t.Run("valid answer passes", func(t *testing.T) {
		_, client := newTestServer(t, func(t *testing.T, req apiRequest) string {
			// The provider schema must not carry additionalProperties.
			raw, _ := json.Marshal(req.GenerationConfig["responseSchema"])
			assert.NotContains(t, string(raw), "additionalProperties")
			return `{"tipo_do_documento": "CNH", "nome_completo": "Jane Doe"}`
		})

		resp, err := client.Generate(context.Background(), ports.GenerateRequest{
			Model:  "gemini-2.5-flash",
			Schema: def.JSONSchema(),
			Content: domain.Content{Parts: []domain.Part{
				{Text: "extraia"},
			}},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"tipo_do_documento": "CNH", "nome_completo": "Jane Doe"}`, resp.Text)
	})

	t.Run("missing field rejected locally", func(t *testing.T) {
		_, client := newTestServer(t, func(t *testing.T, req apiRequest) string {
			return `{"tipo_do_documento": "CNH"}`
		})

		_, err := client.Generate(context.Background(), ports.GenerateRequest{
			Model:  "gemini-2.5-flash",
			Schema: def.JSONSchema(),
			Content: domain.Content{Parts: []domain.Part{
				{Text: "extraia"},
			}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match schema")
	})
}

func TestGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": "quota"}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := client.Generate(context.Background(), ports.GenerateRequest{
		Model:   "gemini-2.5-flash",
		Content: domain.Content{Parts: []domain.Part{{Text: "oi"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSanitizeForProvider(t *testing.T) {
	in := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"produtos": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
				},
			},
		},
	}
	out := sanitizeForProvider(in)

	raw, _ := json.Marshal(out)
	assert.NotContains(t, string(raw), "additionalProperties")
	// The original is untouched.
	assert.Contains(t, in, "additionalProperties")
}
