// Package generate pre-renders every route of the site into a static output
// directory.
//
// A run enumerates routes exactly once, renders them through a bounded worker
// pool, optionally follows internal links found in rendered pages, and swaps
// the staged result into place only when the run succeeds. A failed run never
// leaves a partial site behind.
package generate
