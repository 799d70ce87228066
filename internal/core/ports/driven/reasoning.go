package driven

import "context"

// GenerateOptions configures one reasoning generation call.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness. Diagnostic stages use low values.
	Temperature float64
}

// ReasoningService generates natural-language stage output from a structured
// prompt. Each diagnostic stage builds its own prompt and decodes the
// response against its own schema; the service itself is schema-agnostic.
//
// Transport-level failures (unreachable host, timeouts, 5xx) are marked with
// retry.Transient and may be retried once by the caller. Content-level
// failures (a response that decodes but violates the stage schema) are
// surfaced as-is: repeating a malformed prompt rarely helps.
type ReasoningService interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
