package failpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitWithNoHookIsNoop(t *testing.T) {
	err := Hit(context.Background(), "after-write-hunk")
	require.NoError(t, err)
}

func TestHitInvokesRegisteredHook(t *testing.T) {
	want := errors.New("boom")
	ctx := WithHook(context.Background(), "after-write-hunk", func(ctx context.Context) error {
		return want
	})

	err := Hit(ctx, "after-write-hunk")
	assert.ErrorIs(t, err, want)

	// Unrelated site names are unaffected.
	err = Hit(ctx, "before-rename-block")
	require.NoError(t, err)
}

func TestWithHookPreservesEarlierHooks(t *testing.T) {
	ctx := WithHook(context.Background(), "a", func(ctx context.Context) error { return errors.New("a") })
	ctx = WithHook(ctx, "b", func(ctx context.Context) error { return errors.New("b") })

	assert.EqualError(t, Hit(ctx, "a"), "a")
	assert.EqualError(t, Hit(ctx, "b"), "b")
}
