// Package runtime implements the interpreter over the agent tree: steps,
// sequential pipelines and coordinators share one Execute entry point.
package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lablia/docflow/internal/logging"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/ports"
)

// Engine executes agent trees against a model client. It is stateless
// across calls: all conversational state lives in the session passed to
// Execute, so one engine serves many concurrent sessions.
type Engine struct {
	client      ports.ModelClient
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	callTimeout time.Duration
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithCallTimeout bounds each individual inference call. Zero disables
// the bound; the caller's context still applies.
func WithCallTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.callTimeout = d }
}

// NewEngine creates an engine backed by the given inference client.
func NewEngine(client ports.ModelClient, opts ...EngineOption) *Engine {
	e := &Engine{
		client: client,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CallOptions carries the per-turn configuration threaded through the
// tree. Binding the model here, instead of mutating the shared agent,
// keeps agents safe to share across sessions.
type CallOptions struct {
	Model string
}

// scope tracks where in the tree execution currently is. Once a
// coordinator commits to a child, delegated is set and transfer requests
// are checked against the executing agent's permission flags.
type scope struct {
	delegated   bool
	coordinator string
}

// Execute runs the agent subtree, mutating sess.Slots as steps publish
// their outputs. Callers that need atomic commit semantics pass a cloned
// session and merge on success.
func (e *Engine) Execute(ctx context.Context, agent *domain.Agent, sess *domain.Session, content domain.Content, opts CallOptions) (domain.Output, error) {
	return e.execute(ctx, agent, sess, content, opts, scope{})
}

func (e *Engine) execute(ctx context.Context, agent *domain.Agent, sess *domain.Session, content domain.Content, opts CallOptions, sc scope) (domain.Output, error) {
	e.fireEnter(ctx, agent)
	defer e.fireLeave(ctx, agent)

	switch agent.Kind {
	case domain.KindStep:
		return e.runStep(ctx, agent, sess, content, opts, sc)
	case domain.KindPipeline:
		return e.runPipeline(ctx, agent, sess, content, opts, sc)
	case domain.KindCoordinator:
		return e.runCoordinator(ctx, agent, sess, content, opts, sc)
	default:
		return domain.Output{}, &domain.RoutingError{Coordinator: agent.Name, Choice: string(agent.Kind)}
	}
}

// runStep renders the instruction, performs one inference call and
// publishes at most one slot. The slot write is atomic per step: a
// validation failure publishes nothing.
func (e *Engine) runStep(ctx context.Context, step *domain.Agent, sess *domain.Session, content domain.Content, opts CallOptions, sc scope) (domain.Output, error) {
	instruction := renderInstruction(step.Instruction, sess.Slots, e.logger)

	req := ports.GenerateRequest{
		Model:       opts.Model,
		Instruction: instruction,
		Content:     content,
	}
	if step.OutputSchema != nil {
		req.Schema = step.OutputSchema.JSONSchema()
	}

	resp, err := e.generate(ctx, step, req)
	if err != nil {
		return domain.Output{}, &domain.InferenceError{Agent: step.Name, Model: opts.Model, Err: err}
	}

	if resp.TransferTo != "" {
		e.refuseTransfer(step, resp.TransferTo, sc)
	}

	var out domain.Output
	if step.OutputSchema != nil {
		record, err := step.OutputSchema.Parse([]byte(resp.Text))
		if err != nil {
			return domain.Output{}, &domain.StructuredOutputError{Agent: step.Name, Err: err}
		}
		// A structured step's output is the record; the model text is
		// just its serialization.
		out.Record = record
		if step.OutputKey != "" {
			sess.Slots[step.OutputKey] = record
		}
	} else {
		out.Text = resp.Text
		if step.OutputKey != "" {
			sess.Slots[step.OutputKey] = resp.Text
		}
	}

	e.logger.Debug("step completed",
		"agent", step.Name,
		"output_key", step.OutputKey,
		"structured", step.OutputSchema != nil,
	)
	return out, nil
}

// runPipeline executes children strictly in order, handing the original
// request content unchanged to every child. The first failure aborts the
// pipeline and propagates unmodified; the last child's output is the
// pipeline's output.
func (e *Engine) runPipeline(ctx context.Context, pipeline *domain.Agent, sess *domain.Session, content domain.Content, opts CallOptions, sc scope) (domain.Output, error) {
	var out domain.Output
	for _, child := range pipeline.SubAgents {
		var err error
		out, err = e.execute(ctx, child, sess, content, opts, sc)
		if err != nil {
			return domain.Output{}, err
		}
	}
	return out, nil
}

// runCoordinator asks the model to select exactly one child, then
// delegates the whole turn to it. Selection happens once: an unknown or
// empty choice is a RoutingError, never a silent default, and there is
// no second attempt within the turn.
func (e *Engine) runCoordinator(ctx context.Context, coord *domain.Agent, sess *domain.Session, content domain.Content, opts CallOptions, sc scope) (domain.Output, error) {
	routes := make([]ports.RouteOption, 0, len(coord.SubAgents))
	for _, child := range coord.SubAgents {
		routes = append(routes, ports.RouteOption{Name: child.Name, Description: child.Description})
	}

	resp, err := e.generate(ctx, coord, ports.GenerateRequest{
		Model:       opts.Model,
		Instruction: renderInstruction(coord.Instruction, sess.Slots, e.logger),
		Content:     content,
		Routes:      routes,
	})
	if err != nil {
		return domain.Output{}, &domain.InferenceError{Agent: coord.Name, Model: opts.Model, Err: err}
	}

	choice := strings.TrimSpace(resp.Route)
	if choice == "" {
		choice = strings.TrimSpace(resp.Text)
	}
	selected := coord.Find(choice)
	if selected == nil {
		return domain.Output{}, &domain.RoutingError{Coordinator: coord.Name, Choice: choice}
	}

	e.logger.Info("coordinator committed",
		"coordinator", coord.Name,
		"child", selected.Name,
	)
	if e.hooks.OnRoute != nil {
		e.hooks.OnRoute(ctx, &domain.RouteEvent{Coordinator: coord.Name, Child: selected.Name})
	}

	return e.execute(ctx, selected, sess, content, opts, scope{delegated: true, coordinator: coord.Name})
}

// refuseTransfer enforces delegation containment: inside a committed
// branch, a model-requested handoff back to the coordinator or to an
// unselected sibling is dropped when the step's flags forbid it.
func (e *Engine) refuseTransfer(step *domain.Agent, target string, sc scope) {
	if sc.delegated && (step.DisallowTransferToParent || step.DisallowTransferToPeers) {
		e.logger.Warn("transfer request refused inside committed branch",
			"agent", step.Name,
			"target", target,
			"coordinator", sc.coordinator,
		)
		return
	}
	// Steps have no routing authority of their own; outside a delegated
	// branch there is nothing to hand control to either.
	e.logger.Warn("transfer request ignored", "agent", step.Name, "target", target)
}

// generate performs one bounded inference call and fires the model hook.
func (e *Engine) generate(ctx context.Context, agent *domain.Agent, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.client.Generate(ctx, req)

	if e.hooks.OnModelCall != nil {
		e.hooks.OnModelCall(ctx, &domain.ModelEvent{
			Agent:    agent.Name,
			Model:    req.Model,
			Duration: time.Since(start),
			IsError:  err != nil,
		})
	}
	return resp, err
}

func (e *Engine) fireEnter(ctx context.Context, agent *domain.Agent) {
	if e.hooks.OnAgentEnter != nil {
		e.hooks.OnAgentEnter(ctx, &domain.AgentEvent{Name: agent.Name, Kind: agent.Kind})
	}
}

func (e *Engine) fireLeave(ctx context.Context, agent *domain.Agent) {
	if e.hooks.OnAgentLeave != nil {
		e.hooks.OnAgentLeave(ctx, &domain.AgentEvent{Name: agent.Name, Kind: agent.Kind})
	}
}
