package content

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

var (
	// ErrQueryFailed is the single failure kind of a content query: unreadable
	// storage, malformed documents and unsupported projections all match it.
	ErrQueryFailed = errors.New("content query failed")

	// ErrNotFound is returned by Get for unknown paths.
	ErrNotFound = errors.New("content not found")
)

// queryFailed builds a classified content error that matches ErrQueryFailed.
func queryFailed(message string, cause error, kv ...any) error {
	var wrapped error
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrQueryFailed, cause)
	} else {
		wrapped = ErrQueryFailed
	}
	b := ferrors.WrapError(wrapped, ferrors.CategoryContent, message).Fatal()
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			b = b.WithContext(k, kv[i+1])
		}
	}
	return b.Build()
}

func notFound(path string) error {
	return ferrors.WrapError(ErrNotFound, ferrors.CategoryNotFound, fmt.Sprintf("no document for %s", path)).
		WithContext("path", path).Build()
}
