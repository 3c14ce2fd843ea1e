// Package content discovers content documents and answers queries over them.
//
// A document at <root>/blog/post-1.md is addressed by the logical path
// /blog/post-1; <root>/index.md is /index. Stores never mutate the entries
// they return, and each Fetch builds fresh values.
package content
