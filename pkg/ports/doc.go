// Package ports defines the boundary interfaces of the orchestration
// core: the external inference capability and session persistence.
// Adapters under pkg/adapters provide the concrete implementations.
package ports
