// internal/assistant/strategy/strategy.go

// Package strategy provides an ordered-fallback combinator for turn handling.
// Each step either claims the turn by returning a result, passes by returning
// nil, or aborts the chain with an error. Registration order is the whole
// policy: earlier steps win.
package strategy

import "context"

// Step is one candidate way to answer a turn. A nil result with a nil error
// means "not mine, try the next one".
type Step[I, O any] struct {
	Name string
	Run  func(ctx context.Context, in I) (*O, error)
}

// Chain applies steps in order until one claims the input.
type Chain[I, O any] struct {
	steps []Step[I, O]
}

func NewChain[I, O any](steps ...Step[I, O]) *Chain[I, O] {
	return &Chain[I, O]{steps: steps}
}

// TryInOrder runs the steps in registration order. The first step to return
// a non-nil result or a non-nil error ends the chain. When every step passes,
// both returns are nil and the caller owns the default.
func (c *Chain[I, O]) TryInOrder(ctx context.Context, in I) (*O, string, error) {
	for _, step := range c.steps {
		out, err := step.Run(ctx, in)
		if err != nil {
			return nil, step.Name, err
		}
		if out != nil {
			return out, step.Name, nil
		}
	}
	return nil, "", nil
}
