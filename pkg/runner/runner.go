package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lablia/docflow/internal/logging"
	"github.com/lablia/docflow/internal/mimetype"
	"github.com/lablia/docflow/internal/runtime"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/session"
)

// DefaultResponse is returned when a turn produces no model output,
// including turns whose request assembled to nothing.
const DefaultResponse = "Nenhuma resposta recebida do agente."

// Attachment is one uploaded file of a turn.
type Attachment struct {
	Data     []byte
	Filename string
}

// TurnInput is everything the user supplied for one turn.
type TurnInput struct {
	Text string

	// Model is a pretty name or provider identifier. Empty picks the
	// default.
	Model string

	Attachments []Attachment
}

// Runner executes turns: one user request through an agent tree, with
// session state committed atomically per turn.
type Runner struct {
	engine       *runtime.Engine
	sessions     *session.Manager
	logger       *slog.Logger
	defaultModel string
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger configures structured logging for turn execution.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithDefaultModel sets the model used for turns that name none. It
// accepts a pretty name or a provider identifier; empty keeps the
// built-in default.
func WithDefaultModel(name string) Option {
	return func(r *Runner) {
		r.defaultModel = name
	}
}

// New creates a Runner.
func New(engine *runtime.Engine, sessions *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sessions exposes the session manager for surface adapters.
func (r *Runner) Sessions() *session.Manager {
	return r.sessions
}

// CreateSession loads or initializes the session with the given ID.
func (r *Runner) CreateSession(ctx context.Context, sessionID, appName, userID string) (*domain.Session, error) {
	return r.sessions.LoadOrStart(ctx, sessionID, appName, userID)
}

// History returns the conversation history of a session.
func (r *Runner) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	sess, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

// RunTurn executes one conversation turn against the agent tree and
// returns the assistant's reply text. The whole turn holds the session
// lock: load, execute, commit.
func (r *Runner) RunTurn(ctx context.Context, agent *domain.Agent, sessionID string, input TurnInput) (string, error) {
	var reply string
	err := r.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		reply, err = r.runTurnLocked(ctx, agent, sessionID, input)
		return err
	})
	return reply, err
}

func (r *Runner) runTurnLocked(ctx context.Context, agent *domain.Agent, sessionID string, input TurnInput) (string, error) {
	store := r.sessions.Store()

	sess, err := store.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	name := input.Model
	if name == "" {
		name = r.defaultModel
	}
	model := ResolveModel(name)
	logger := r.logger.With("agent", agent.Name, "session_id", sessionID, "model", model)

	content, userMsg := r.assemble(input, logger)
	logger.Debug("turn status", "status", domain.TurnRequestAssembled, "parts", len(content.Parts))

	// Nothing usable in the request: no inference, no state change.
	if content.Empty() {
		logger.Warn("empty turn, skipping inference")
		return DefaultResponse, nil
	}

	// Execute against a working copy. The session proper only changes
	// on commit, so a mid-pipeline failure leaves no partial slots.
	work := sess.Clone()
	startSeq := sess.Seq

	if agent.Kind == domain.KindCoordinator {
		logger.Debug("turn status", "status", domain.TurnRouting)
	}
	logger.Debug("turn status", "status", domain.TurnExecuting)
	started := time.Now()

	out, runErr := r.engine.Execute(ctx, agent, work, content, runtime.CallOptions{Model: model})
	if runErr == nil && out.Text == "" && out.Record != nil {
		// A terminal step answered with a record instead of prose. Keep
		// the data visible in the failure entry.
		raw, _ := json.Marshal(out.Record)
		runErr = fmt.Errorf("%w: %s", domain.ErrNonTextOutput, raw)
	}

	if runErr != nil {
		logger.Error("turn status", "status", domain.TurnFailed, "err", runErr, "duration", time.Since(started))

		// Record the failure in history without committing slot writes.
		sess.History = append(sess.History, userMsg, domain.Message{
			Role:   domain.RoleAssistant,
			Text:   fmt.Sprintf("Falha ao executar o agente: %v", runErr),
			At:     time.Now().UTC(),
			Failed: true,
		})
		sess.Seq++
		if err := store.Save(ctx, sessionID, sess); err != nil {
			logger.Error("failed to persist failure record", "err", err)
		}
		return "", runErr
	}

	reply := out.Text
	if reply == "" {
		reply = DefaultResponse
	}

	// Commit. The lock guarantees no concurrent turn advanced the
	// session; the re-check guards against store-level interference
	// from outside this process.
	current, err := store.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to re-read session before commit: %w", err)
	}
	if current.Seq != startSeq {
		return "", fmt.Errorf("session %s advanced during turn, refusing to commit", sessionID)
	}
	work.History = append(work.History, userMsg, domain.Message{
		Role: domain.RoleAssistant,
		Text: reply,
		At:   time.Now().UTC(),
	})
	work.Seq++
	if err := store.Save(ctx, sessionID, work); err != nil {
		return "", fmt.Errorf("failed to commit turn: %w", err)
	}

	logger.Info("turn status", "status", domain.TurnCompleted, "duration", time.Since(started))
	return reply, nil
}

// assemble builds the multimodal request and the matching history entry.
// Unsupported attachments are dropped with a warning, never failing the
// turn.
func (r *Runner) assemble(input TurnInput, logger *slog.Logger) (domain.Content, domain.Message) {
	content := domain.Content{Role: domain.RoleUser}

	text := strings.TrimSpace(input.Text)
	if text != "" {
		content.Parts = append(content.Parts, domain.Part{Text: input.Text})
	}

	userMsg := domain.Message{
		Role: domain.RoleUser,
		Text: input.Text,
		At:   time.Now().UTC(),
	}

	for _, att := range input.Attachments {
		mime := mimetype.Detect(att.Data, att.Filename)
		if !mimetype.IsSupported(mime) {
			logger.Warn("unsupported attachment dropped",
				"mime_type", mime,
				"filename", att.Filename,
			)
			continue
		}

		content.Parts = append(content.Parts, domain.Part{
			Data:     att.Data,
			MIMEType: mime,
			Name:     att.Filename,
		})

		// History keeps the first accepted attachment for display.
		if userMsg.Attachment == nil {
			userMsg.Attachment = att.Data
			userMsg.AttachmentMIME = mime
			userMsg.AttachmentName = att.Filename
		}
	}

	return content, userMsg
}
