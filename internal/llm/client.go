package llm

import (
	"context"
)

// Generator is the synthesis capability the pipeline stages call. It is
// the only contract stage logic has with a model provider, so providers
// swap via the factory without touching the pipeline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
