package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neverExists(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func TestRandomUsesCharset(t *testing.T) {
	gen := New(5)
	code, err := gen.Random(12)
	require.NoError(t, err)
	assert.Len(t, code, 12)
	for _, r := range code {
		assert.Contains(t, Charset, string(r))
	}
}

func TestRandomRejectsInvalidLength(t *testing.T) {
	gen := New(5)
	_, err := gen.Random(0)
	require.Error(t, err)
}

func TestUniqueCodesArePairwiseDistinct(t *testing.T) {
	gen := New(5)
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := gen.Unique(context.Background(), 8, neverExists)
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %s after %d draws", code, i)
		seen[code] = struct{}{}
	}
}

func TestUniqueRetriesOnCollision(t *testing.T) {
	gen := New(5)
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls < 3, nil
	}
	code, err := gen.Unique(context.Background(), 8, exists)
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	assert.Equal(t, 3, calls)
}

func TestUniqueExhaustsRetryBudget(t *testing.T) {
	gen := New(3)
	calls := 0
	alwaysTaken := func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	}
	_, err := gen.Unique(context.Background(), 8, alwaysTaken)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, calls)
}

func TestPrefixedFormat(t *testing.T) {
	gen := New(5)
	code, err := gen.Prefixed(context.Background(), "STU", 4, neverExists)
	require.NoError(t, err)
	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "STU", parts[0])
	assert.NotEmpty(t, parts[1])
	assert.Len(t, parts[2], 4)
}

func TestPrefixedExhaustsRetryBudget(t *testing.T) {
	gen := New(2)
	alwaysTaken := func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}
	_, err := gen.Prefixed(context.Background(), "TCH", 4, alwaysTaken)
	require.ErrorIs(t, err, ErrExhausted)
}
