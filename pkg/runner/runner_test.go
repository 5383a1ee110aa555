package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/lablia/docflow/internal/agents/docextract"
	"github.com/lablia/docflow/internal/runtime"
	"github.com/lablia/docflow/pkg/adapters/memory"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/ports"
	"github.com/lablia/docflow/pkg/runner"
	"github.com/lablia/docflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient answers routing requests with a fixed choice and step
// requests by instruction keyword, recording every request.
type scriptedClient struct {
	route   string
	replies map[string]ports.GenerateResponse
	calls   []ports.GenerateRequest
	err     error
}

func (c *scriptedClient) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	c.calls = append(c.calls, req)
	if c.err != nil {
		return ports.GenerateResponse{}, c.err
	}
	if len(req.Routes) > 0 {
		return ports.GenerateResponse{Route: c.route}, nil
	}
	for keyword, resp := range c.replies {
		if strings.Contains(req.Instruction, keyword) {
			return resp, nil
		}
	}
	return ports.GenerateResponse{Text: "ok"}, nil
}

func newRunner(t *testing.T, client ports.ModelClient, opts ...runner.Option) (*runner.Runner, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(memory.NewStore())
	eng := runtime.NewEngine(client)
	return runner.New(eng, sessions, opts...), sessions
}

func pdfBytes() []byte {
	return []byte("%PDF-1.7 tiny")
}

func TestRunTurn_CoordinatorEndToEnd(t *testing.T) {
	record := map[string]any{
		"tipo_do_documento":  "CNH",
		"nome_completo":      "Jane Doe",
		"cpf":                "123",
		"data_de_nascimento": "01/01/1990",
	}
	raw, _ := json.Marshal(record)

	client := &scriptedClient{
		route: "cnh_pipeline",
		replies: map[string]ports.GenerateResponse{
			"Carteira Nacional de Habilitação": {Text: string(raw)},
			"descrição sobre os dados":         {Text: "Documento de Jane Doe, CPF 123."},
		},
	}
	r, _ := newRunner(t, client)
	ctx := context.Background()

	_, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)

	reply, err := r.RunTurn(ctx, docextract.Coordinator(), "s1", runner.TurnInput{
		Text:        "Extraia os dados do documento",
		Attachments: []runner.Attachment{{Data: pdfBytes(), Filename: "cnh.pdf"}},
	})
	require.NoError(t, err)

	// The reply surfaces the extracted fields.
	assert.Contains(t, reply, "Jane Doe")
	assert.Contains(t, reply, "123")

	// The committed session holds the slot and both history entries.
	sess, err := r.Sessions().Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, record, sess.Slots[docextract.SlotDocumentData])
	require.Len(t, sess.History, 2)
	assert.Equal(t, domain.RoleUser, sess.History[0].Role)
	assert.Equal(t, "application/pdf", sess.History[0].AttachmentMIME)
	assert.Equal(t, domain.RoleAssistant, sess.History[1].Role)
	assert.False(t, sess.History[1].Failed)
	assert.Equal(t, uint64(1), sess.Seq)

	// The attachment reached the model request.
	require.NotEmpty(t, client.calls)
	var sawAttachment bool
	for _, part := range client.calls[0].Content.Parts {
		if part.IsAttachment() {
			sawAttachment = true
			assert.Equal(t, "application/pdf", part.MIMEType)
		}
	}
	assert.True(t, sawAttachment)
}

func TestRunTurn_EmptyRequestSkipsInference(t *testing.T) {
	client := &scriptedClient{}
	r, _ := newRunner(t, client)
	ctx := context.Background()

	_, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)

	// Whitespace text plus an unsupported attachment assembles to
	// nothing.
	reply, err := r.RunTurn(ctx, docextract.Coordinator(), "s1", runner.TurnInput{
		Text:        "   ",
		Attachments: []runner.Attachment{{Data: []byte("plain text file"), Filename: "notes.txt"}},
	})
	require.NoError(t, err)
	assert.Equal(t, runner.DefaultResponse, reply)

	// The model was never called and the session is untouched.
	assert.Empty(t, client.calls)
	sess, err := r.Sessions().Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.History)
	assert.Equal(t, uint64(0), sess.Seq)
}

func TestRunTurn_UnsupportedAttachmentDroppedButTextRuns(t *testing.T) {
	client := &scriptedClient{route: "cnh_pipeline", replies: map[string]ports.GenerateResponse{}}
	agent := &domain.Agent{Kind: domain.KindStep, Name: "echo", Instruction: "responda"}
	r, _ := newRunner(t, client)
	ctx := context.Background()

	_, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)

	_, err = r.RunTurn(ctx, agent, "s1", runner.TurnInput{
		Text:        "olá",
		Attachments: []runner.Attachment{{Data: []byte{0x00, 0x01, 0x02}}},
	})
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	for _, part := range client.calls[0].Content.Parts {
		assert.False(t, part.IsAttachment())
	}
}

func TestRunTurn_FailureLeavesSlotsUntouched(t *testing.T) {
	client := &scriptedClient{err: errors.New("quota exhausted")}
	agent := &domain.Agent{Kind: domain.KindStep, Name: "echo", Instruction: "responda"}
	r, _ := newRunner(t, client)
	ctx := context.Background()

	sess, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)
	sess.Slots["document_data"] = map[string]any{"nome_completo": "kept"}
	require.NoError(t, r.Sessions().Save(ctx, "s1", sess))

	_, err = r.RunTurn(ctx, agent, "s1", runner.TurnInput{Text: "olá"})
	require.Error(t, err)
	var infErr *domain.InferenceError
	assert.ErrorAs(t, err, &infErr)

	after, err := r.Sessions().Load(ctx, "s1")
	require.NoError(t, err)
	// Prior slots survive, and the failure is visible in history.
	assert.Equal(t, map[string]any{"nome_completo": "kept"}, after.Slots["document_data"])
	require.Len(t, after.History, 2)
	assert.True(t, after.History[1].Failed)
	assert.Contains(t, after.History[1].Text, "quota exhausted")
}

func TestRunTurn_NonTextTerminalOutput(t *testing.T) {
	record := map[string]any{"tipo_do_documento": "CNH", "nome_completo": "Jane Doe",
		"cpf": "123", "data_de_nascimento": "01/01/1990"}
	raw, _ := json.Marshal(record)

	// A bare extraction step ends the turn holding a record, not prose.
	agent := &domain.Agent{
		Kind:         domain.KindStep,
		Name:         "extract",
		Instruction:  "extraia",
		OutputSchema: docextract.CNHSchema(),
		OutputKey:    "document_data",
	}
	client := &scriptedClient{replies: map[string]ports.GenerateResponse{
		"extraia": {Text: string(raw)},
	}}
	r, _ := newRunner(t, client)
	ctx := context.Background()

	_, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)

	_, err = r.RunTurn(ctx, agent, "s1", runner.TurnInput{Text: "segue o documento"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNonTextOutput)

	// The failure entry carries the JSON so the data is not lost.
	after, err := r.Sessions().Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, after.History, 2)
	assert.Contains(t, after.History[1].Text, "Jane Doe")
}

func TestRunTurn_MissingSession(t *testing.T) {
	r, _ := newRunner(t, &scriptedClient{})
	agent := &domain.Agent{Kind: domain.KindStep, Name: "echo", Instruction: "responda"}

	_, err := r.RunTurn(context.Background(), agent, "ghost", runner.TurnInput{Text: "oi"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunTurn_ConfiguredDefaultModel(t *testing.T) {
	client := &scriptedClient{}
	agent := &domain.Agent{Kind: domain.KindStep, Name: "echo", Instruction: "responda"}
	r, _ := newRunner(t, client, runner.WithDefaultModel("gemini-2.0-flash"))
	ctx := context.Background()

	_, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)

	// A turn naming no model binds the configured default, not the
	// built-in one.
	_, err = r.RunTurn(ctx, agent, "s1", runner.TurnInput{Text: "oi"})
	require.NoError(t, err)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "gemini-2.0-flash", client.calls[0].Model)

	// An explicit per-turn choice still wins.
	_, err = r.RunTurn(ctx, agent, "s1", runner.TurnInput{Text: "oi", Model: "Gemini 2.5 Flash"})
	require.NoError(t, err)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "gemini-2.5-flash", client.calls[1].Model)
}

func TestRunTurn_LogsRoutingStatusForCoordinator(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	raw, _ := json.Marshal(map[string]any{
		"tipo_do_documento":  "CNH",
		"nome_completo":      "Jane Doe",
		"cpf":                "123",
		"data_de_nascimento": "01/01/1990",
	})
	client := &scriptedClient{
		route: "cnh_pipeline",
		replies: map[string]ports.GenerateResponse{
			"Carteira Nacional de Habilitação": {Text: string(raw)},
			"descrição sobre os dados":         {Text: "Documento de Jane Doe."},
		},
	}
	r, _ := newRunner(t, client, runner.WithLogger(logger))
	ctx := context.Background()

	_, err := r.CreateSession(ctx, "s1", "agents", "u1")
	require.NoError(t, err)

	_, err = r.RunTurn(ctx, docextract.Coordinator(), "s1", runner.TurnInput{Text: "oi"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), string(domain.TurnRouting))

	// A plain step never enters the routing state.
	buf.Reset()
	step := &domain.Agent{Kind: domain.KindStep, Name: "echo", Instruction: "responda"}
	_, err = r.RunTurn(ctx, step, "s1", runner.TurnInput{Text: "oi"})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "status="+string(domain.TurnRouting))
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", runner.ResolveModel(""))
	assert.Equal(t, "gemini-2.5-flash", runner.ResolveModel("Gemini 2.5 Flash"))
	assert.Equal(t, "gemini-2.0-flash", runner.ResolveModel("Gemini 2.0 Flash"))
	assert.Equal(t, "gemini-2.0-flash", runner.ResolveModel("gemini-2.0-flash"))
	assert.Equal(t, "gemini-2.5-flash", runner.ResolveModel("Unknown Model"))
}
