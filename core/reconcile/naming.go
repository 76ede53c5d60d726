package reconcile

import (
	"context"
	"errors"
	"fmt"
)

// MaxNameLen is the registry's display name limit.
const MaxNameLen = 64

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Suffix builds name[:keep] + "_[" + tag + "]", capped at MaxNameLen.
func Suffix(name, tag string, keep int) string {
	return Truncate(Truncate(name, keep)+"_["+tag+"]", MaxNameLen)
}

// Disambiguate returns the deterministic fallback name for an instance-shaped
// object: the first 53 runes of name and the first 8 runes of its external ID.
func Disambiguate(name, externalID string) string {
	return Suffix(name, Truncate(externalID, 8), 53)
}

// WithNameFallback calls write with primary and, if the registry reports a
// uniqueness conflict, once more with fallback. It returns the name that was
// accepted. A second conflict is returned wrapped, as is any other error.
func WithNameFallback(ctx context.Context, primary, fallback string, write func(ctx context.Context, name string) error) (string, error) {
	names := []string{primary, fallback}
	if fallback == "" || fallback == primary {
		names = names[:1]
	}

	var err error
	for _, name := range names {
		if err = write(ctx, name); err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrUniquenessConflict) {
			return "", err
		}
	}
	return "", fmt.Errorf("name %q and fallback %q both rejected: %w", primary, fallback, err)
}
