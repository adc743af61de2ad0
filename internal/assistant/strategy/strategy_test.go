// internal/assistant/strategy/strategy_test.go
package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pass(name string) Step[int, string] {
	return Step[int, string]{Name: name, Run: func(ctx context.Context, in int) (*string, error) {
		return nil, nil
	}}
}

func claim(name, result string) Step[int, string] {
	return Step[int, string]{Name: name, Run: func(ctx context.Context, in int) (*string, error) {
		return &result, nil
	}}
}

func TestTryInOrder_FirstClaimWins(t *testing.T) {
	chain := NewChain(pass("a"), claim("b", "from-b"), claim("c", "from-c"))

	out, name, err := chain.TryInOrder(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "from-b", *out)
	assert.Equal(t, "b", name)
}

func TestTryInOrder_AllPassReturnsNil(t *testing.T) {
	chain := NewChain(pass("a"), pass("b"))

	out, name, err := chain.TryInOrder(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, name)
}

func TestTryInOrder_ErrorStopsChain(t *testing.T) {
	ran := false
	boom := Step[int, string]{Name: "boom", Run: func(ctx context.Context, in int) (*string, error) {
		return nil, errors.New("step failed")
	}}
	after := Step[int, string]{Name: "after", Run: func(ctx context.Context, in int) (*string, error) {
		ran = true
		return nil, nil
	}}
	chain := NewChain(boom, after)

	out, name, err := chain.TryInOrder(context.Background(), 0)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, "boom", name)
	assert.False(t, ran, "steps after a failing step must not run")
}
