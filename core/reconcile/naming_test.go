package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisambiguate(t *testing.T) {
	name := "my-very-long-name-that-exceeds-the-limit-by-a-lot"
	id := "abcdef1234567890"

	got := Disambiguate(name, id)
	want := Truncate(Truncate(name, 53)+"_[abcdef12]", 64)

	assert.Equal(t, want, got)
	assert.Equal(t, got, Disambiguate(name, id))
	assert.True(t, strings.HasSuffix(got, "_[abcdef12]"))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxNameLen)
}

func TestDisambiguate_LongName(t *testing.T) {
	name := strings.Repeat("x", 80)
	got := Disambiguate(name, "0123456789")

	assert.Equal(t, MaxNameLen, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("x", 53)+"_[01234567]", got)
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "eth0_[FA:16:3E:00:00:01]", Suffix("eth0", "FA:16:3E:00:00:01", 44))
	assert.Equal(t, "vol_[12345678]", Suffix("vol", "12345678", 52))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "żół", Truncate("żółw", 3))
}

func TestWithNameFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("PrimaryAccepted", func(t *testing.T) {
		var tried []string
		name, err := WithNameFallback(ctx, "web1", "web1_[i-1]", func(_ context.Context, n string) error {
			tried = append(tried, n)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "web1", name)
		assert.Equal(t, []string{"web1"}, tried)
	})

	t.Run("FallbackAfterConflict", func(t *testing.T) {
		var tried []string
		name, err := WithNameFallback(ctx, "web1", "web1_[i-1]", func(_ context.Context, n string) error {
			tried = append(tried, n)
			if n == "web1" {
				return fmt.Errorf("create vm: %w", ErrUniquenessConflict)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "web1_[i-1]", name)
		assert.Equal(t, []string{"web1", "web1_[i-1]"}, tried)
	})

	t.Run("SecondConflictIsFatal", func(t *testing.T) {
		calls := 0
		_, err := WithNameFallback(ctx, "web1", "web1_[i-1]", func(_ context.Context, n string) error {
			calls++
			return ErrUniquenessConflict
		})
		assert.ErrorIs(t, err, ErrUniquenessConflict)
		assert.Equal(t, 2, calls)
	})

	t.Run("OtherErrorNotRetried", func(t *testing.T) {
		calls := 0
		_, err := WithNameFallback(ctx, "web1", "web1_[i-1]", func(_ context.Context, n string) error {
			calls++
			return ErrTransport
		})
		assert.True(t, errors.Is(err, ErrTransport))
		assert.Equal(t, 1, calls)
	})

	t.Run("SameFallbackTriedOnce", func(t *testing.T) {
		calls := 0
		_, err := WithNameFallback(ctx, "web1", "web1", func(_ context.Context, n string) error {
			calls++
			return ErrUniquenessConflict
		})
		assert.ErrorIs(t, err, ErrUniquenessConflict)
		assert.Equal(t, 1, calls)
	})
}
