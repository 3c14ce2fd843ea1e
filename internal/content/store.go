package content

import "context"

// Store answers content queries. Implementations must be safe for concurrent use.
type Store interface {
	// Fetch returns the entries matching q in store order. Every failure
	// matches ErrQueryFailed.
	Fetch(ctx context.Context, q Query) ([]Entry, error)
	// Get returns the entry at the logical path or an error matching ErrNotFound.
	Get(ctx context.Context, path string) (*Entry, error)
}
