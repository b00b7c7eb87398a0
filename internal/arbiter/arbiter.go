// Package arbiter asks an LLM to pick, or compose, the best of several
// candidate translations.
package arbiter

import (
	"context"

	"github.com/valpere/polyglot/internal/translator"
)

// Composite is the provider name reported for a merged translation.
const Composite = "composite"

type Choice struct {
	Provider  string
	Text      string
	Reasoning string
}

// IsComposite reports whether the arbiter merged several candidates.
func (c *Choice) IsComposite() bool {
	return c.Provider == Composite
}

type Arbiter interface {
	Choose(ctx context.Context, req translator.Request, candidates []translator.Result) (*Choice, error)
}
