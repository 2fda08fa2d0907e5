// Package llm provides clients for the external SQL generation
// service. The engine sends a schema-grounded prompt and gets back
// text; everything after that (extraction, validation, execution) is
// handled by the engine itself.
package llm

import "context"

// Client defines the interface for generation calls. Use it for
// dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse sends a prompt with a system message and returns
	// the raw completion text.
	GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)

	// Model returns the configured model name.
	Model() string
}
