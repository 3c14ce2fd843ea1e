// Package workspace owns the directory a git content source is checked out
// into.
//
// A persistent workspace (content.git.workspace set) survives runs so later
// syncs only fetch. An ephemeral workspace is a fresh temporary directory that
// Cleanup removes.
package workspace
