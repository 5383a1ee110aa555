// Package registry holds the named agent trees an application exposes.
// The CLI, HTTP, and MCP surfaces all resolve entrypoints through it.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lablia/docflow/pkg/domain"
)

// Registry manages the available agents.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*domain.Agent
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]*domain.Agent),
	}
}

// Register validates the agent tree and adds it under its root name.
// Registering the same name twice overwrites the previous tree.
func (r *Registry) Register(agent *domain.Agent) error {
	if err := agent.Validate(); err != nil {
		return fmt.Errorf("invalid agent %q: %w", agent.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.Name] = agent
	return nil
}

// MustRegister is Register for static agent wiring at startup.
func (r *Registry) MustRegister(agent *domain.Agent) {
	if err := r.Register(agent); err != nil {
		panic(err)
	}
}

// Get looks up an agent tree by root name.
func (r *Registry) Get(name string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", name)
	}
	return agent, nil
}

// Names returns the registered root names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
