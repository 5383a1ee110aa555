package domain

import (
	"context"
	"time"
)

// AgentEvent describes an agent entering or leaving execution.
type AgentEvent struct {
	Name string
	Kind Kind
}

// RouteEvent describes a coordinator committing to one child.
type RouteEvent struct {
	Coordinator string
	Child       string
}

// ModelEvent describes one completed call to the inference capability.
type ModelEvent struct {
	Agent    string
	Model    string
	Duration time.Duration
	IsError  bool
}

// LifecycleHooks are optional observability callbacks fired by the
// engine. Nil hooks are skipped; hooks must not block.
type LifecycleHooks struct {
	OnAgentEnter func(ctx context.Context, e *AgentEvent)
	OnAgentLeave func(ctx context.Context, e *AgentEvent)
	OnRoute      func(ctx context.Context, e *RouteEvent)
	OnModelCall  func(ctx context.Context, e *ModelEvent)
}
