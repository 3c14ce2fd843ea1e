// Package gitsource mirrors a git repository into a workspace so its content
// directory can back the content store.
//
// The checkout is a read-only mirror: every sync fetches the configured branch
// and hard-resets the worktree to the remote tip. Transient failures are
// retried with the configured backoff; authentication and not-found errors
// are permanent.
package gitsource
