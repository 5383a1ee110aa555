/*
Package docflow is an agent pipeline engine for conversational document
extraction. It orchestrates model agents that read identity documents and
fiscal invoices (NF-e), extract structured data against declared schemas
and answer about it in chat.

Agents form a tree of three kinds: steps perform one inference call,
pipelines run their children in order, and coordinators route each
request to exactly one child. State flows between agents through named
session slots.

# Usage

Wire a model client and a session store into a Runner, then drive turns
against an agent from the catalog:

	client := genai.NewClient(genai.Config{}, logger)
	run := docflow.New(client)

	reg, _ := agents.NewRegistry()
	agent, _ := reg.Get("extracao_dados_documentos")

	sess, _ := run.CreateSession(ctx, "s1", "demo", "alice")
	reply, err := run.RunTurn(ctx, agent, sess.ID, runner.TurnInput{
		Text: "extraia os dados deste documento",
		Attachments: []runner.Attachment{{Data: pdf, Filename: "cnh.pdf"}},
	})

The cmd/docflow binary exposes the same engine as an interactive chat,
an HTTP API and an MCP server.
*/
package docflow

import (
	"log/slog"
	"time"

	"github.com/lablia/docflow/internal/runtime"
	"github.com/lablia/docflow/pkg/adapters/memory"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/ports"
	"github.com/lablia/docflow/pkg/runner"
	"github.com/lablia/docflow/pkg/session"
)

// Version identifies the library and binary release.
const Version = "0.3.0"

type settings struct {
	store        ports.StateStore
	locker       ports.DistributedLocker
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	hooksSet     bool
	callTimeout  time.Duration
	defaultModel string
}

// Option configures the Runner built by New.
type Option func(*settings)

// WithStore replaces the default in-memory session store.
func WithStore(store ports.StateStore) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithLocker adds a distributed lock around turn execution, for
// deployments with more than one replica sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = locker
	}
}

// WithLogger sets a structured logger for the engine and runner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks fired on agent entry,
// routing decisions and model calls.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
		s.hooksSet = true
	}
}

// WithCallTimeout bounds each individual model call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.callTimeout = d
	}
}

// WithDefaultModel sets the model used for turns that name none.
func WithDefaultModel(name string) Option {
	return func(s *settings) {
		s.defaultModel = name
	}
}

// New builds a Runner around the given model client. By default sessions
// live in process memory; inject a store for persistence.
func New(client ports.ModelClient, opts ...Option) *runner.Runner {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	var engineOpts []runtime.EngineOption
	var sessionOpts []session.Option
	var runnerOpts []runner.Option

	if s.logger != nil {
		engineOpts = append(engineOpts, runtime.WithLogger(s.logger))
		sessionOpts = append(sessionOpts, session.WithLogger(s.logger))
		runnerOpts = append(runnerOpts, runner.WithLogger(s.logger))
	}
	if s.hooksSet {
		engineOpts = append(engineOpts, runtime.WithLifecycleHooks(s.hooks))
	}
	if s.callTimeout > 0 {
		engineOpts = append(engineOpts, runtime.WithCallTimeout(s.callTimeout))
	}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}
	if s.defaultModel != "" {
		runnerOpts = append(runnerOpts, runner.WithDefaultModel(s.defaultModel))
	}

	store := s.store
	if store == nil {
		store = memory.NewStore()
	}

	engine := runtime.NewEngine(client, engineOpts...)
	sessions := session.NewManager(store, sessionOpts...)
	return runner.New(engine, sessions, runnerOpts...)
}
