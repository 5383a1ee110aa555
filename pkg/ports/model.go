package ports

import (
	"context"

	"github.com/lablia/docflow/pkg/domain"
)

// RouteOption is one candidate child offered to the model when a
// coordinator asks it to pick a specialized agent.
type RouteOption struct {
	Name        string
	Description string
}

// GenerateRequest is one call to the inference capability.
type GenerateRequest struct {
	// Model is the provider-specific model identifier, bound per call.
	Model string

	// Instruction is the fully rendered system instruction.
	Instruction string

	// Content is the multimodal user request (text + inline attachments).
	Content domain.Content

	// Schema, when set, constrains the response to a closed JSON record
	// (a JSON-Schema map emitted by pkg/schema).
	Schema map[string]any

	// Routes, when non-empty, asks the model to select exactly one of
	// the candidates instead of producing content. Mutually exclusive
	// with Schema.
	Routes []RouteOption
}

// GenerateResponse is the provider's reply.
type GenerateResponse struct {
	// Text is the raw response text (free text, or the JSON record when
	// a Schema was supplied).
	Text string

	// Route is the selected candidate name when Routes were offered.
	Route string

	// TransferTo is an optional model-requested handoff to another
	// agent. The engine honors it only where delegation flags allow.
	TransferTo string
}

// ModelClient is the external inference capability. Implementations must
// respect ctx cancellation and deadlines; a timed-out call surfaces as an
// error and is treated as a step failure by the engine.
type ModelClient interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
