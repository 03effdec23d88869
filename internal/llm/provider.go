package llm

import (
	"context"
	"encoding/json"
)

// Provider is the narrow contract the engine holds against any text
// generator. The deterministic core (estimator, filter, ranker, hint
// escalation) never depends on generator behavior; only hint and
// rationale text production flow through here.
type Provider interface {
	// Generate sends a prompt and returns a structured response. When
	// the request carries a Schema the provider uses its native
	// structured output mechanism and the response Content is the
	// validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes what to send to the generator.
type Request struct {
	// System sets the generator's role and constraints.
	System string

	// Messages is the conversation. Single-turn generation (one user
	// message) is the common case in solve-next.
	Messages []Message

	// Schema, when set, is the JSON Schema the response must conform
	// to. When nil the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero means
	// deterministic.
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the generator.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "problem-hint".
	Name string

	// Description tells the generator what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the generator's output.
type Response struct {
	// Content is the generated output: validated JSON when a Schema was
	// requested, otherwise the raw text wrapped as a JSON string.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
