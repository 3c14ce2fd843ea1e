// Package render turns content entries into complete HTML pages using the
// site head and theme configuration.
package render
