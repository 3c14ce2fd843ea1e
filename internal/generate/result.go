package generate

import (
	"errors"
	"fmt"
	"time"
)

// ErrPagesFailed is returned when at least one page failed and
// generate.fail_on_error is set.
var ErrPagesFailed = errors.New("one or more pages failed to generate")

// PageError is a failure confined to one route.
type PageError struct {
	Route string
	Err   error
}

func (e PageError) Error() string { return fmt.Sprintf("%s: %v", e.Route, e.Err) }

func (e PageError) Unwrap() error { return e.Err }

// Result describes a finished run.
type Result struct {
	RunID     string
	OutputDir string
	Snapshot  string
	// Skipped is set when the cache showed nothing changed since the last run.
	Skipped bool
	// Routes is the enumerator output, duplicates included.
	Routes []string
	// Generated lists every written route, crawled ones included, sorted.
	Generated []string
	Errors    []PageError
	Duration  time.Duration
}

// Failed reports whether any page failed.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }
