// Package refiner runs an optional second pass over the chosen translation,
// asking an LLM editor to make it read naturally in the target language.
package refiner

import (
	"context"

	"github.com/valpere/polyglot/internal/translator"
)

type Refiner interface {
	Refine(ctx context.Context, req translator.Request, draft string) (string, error)
}
