// Package schema defines the closed record contracts that constrain a
// step's structured output.
//
// A Definition lists every field the model must produce, with a type and
// a human-readable description. The description is not decoration: it is
// forwarded to the inference provider as part of the response schema and
// steers what the model extracts. Definitions are closed: every field is
// required and unknown fields are rejected.
//
// The same Definition serves three purposes:
//   - JSONSchema() emits the JSON-Schema map sent to the provider.
//   - Parse() validates raw model output and fails fast on any
//     missing field, wrong type or unknown field.
//   - Decode() maps a validated record onto a typed Go struct.
package schema
