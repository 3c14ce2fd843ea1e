// Package errors provides the classified error primitives used across panorama.
//
// A ClassifiedError carries a category (config, content, generate, ...), a
// severity and a retry strategy next to the usual message and cause. Errors are
// built with the fluent ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "content query failed").
//		WithContext("dir", "/blog").
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
