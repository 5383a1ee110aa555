// Package domain holds the core model of the agent orchestration graph:
// agent specs (steps, pipelines, coordinators), session state with named
// slots, multimodal request content, conversation history and the error
// taxonomy shared by every layer.
package domain
