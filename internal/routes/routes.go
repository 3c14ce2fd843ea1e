package routes

import (
	"context"

	"git.home.luguber.info/inful/panorama/internal/content"
)

// IndexPath is the logical path of the root index document.
const IndexPath = "/index"

// RootRoute is the route the root index document is rendered at.
const RootRoute = "/"

// Enumerator lists routes from a content store. It holds no state besides the
// store and is safe to call repeatedly.
type Enumerator struct {
	store content.Store
}

func NewEnumerator(store content.Store) *Enumerator {
	return &Enumerator{store: store}
}

// Routes performs one deep, path-only query and maps every entry to a route.
// Order and duplicates follow the store. A store failure is returned as the
// very same error value.
func (e *Enumerator) Routes(ctx context.Context) ([]string, error) {
	entries, err := e.store.Fetch(ctx, content.Query{
		Deep: true,
		Only: []string{content.FieldPath},
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NormalizePath(entry.Path))
	}
	return out, nil
}

// NormalizePath maps /index to / and returns any other path unchanged.
func NormalizePath(p string) string {
	if p == IndexPath {
		return RootRoute
	}
	return p
}

// EntryPath is the inverse used when rendering: / resolves to /index.
func EntryPath(route string) string {
	if route == RootRoute {
		return IndexPath
	}
	return route
}
