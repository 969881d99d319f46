// Package errors provides error handling for graph.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Classify against the build taxonomy
//	return errors.Mark(errors.Newf("missing field %s", path), errors.ErrManifest)
//
//	// Check errors
//	if errors.Is(err, errors.ErrManifest) {
//	    // keep the previous watch set
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New           = crdb.New
	Newf          = crdb.Newf
	Wrap          = crdb.Wrap
	Wrapf         = crdb.Wrapf
	WithStack     = crdb.WithStack
	WithMessage   = crdb.WithMessage
	WithMessagef  = crdb.WithMessagef
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Build error taxonomy.
// Use these with errors.Is() to decide how a failure is reported.
// Classify with errors.Mark() or the New*Error helpers so the message stays readable.
var (
	// ErrManifest indicates a structurally invalid manifest (missing required field)
	ErrManifest = New("invalid manifest")

	// ErrFileSystem indicates a referenced file or directory is absent at watch time
	ErrFileSystem = New("file system")

	// ErrCodeGen indicates the renderer was handed a type it cannot express
	ErrCodeGen = New("code generation")

	// ErrCompile indicates the compile pipeline failed
	ErrCompile = New("compile failed")
)

// NewManifestError creates a manifest error with a formatted message
func NewManifestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrManifest)
}

// NewFileSystemError creates a file system error with a formatted message
func NewFileSystemError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrFileSystem)
}

// NewCodeGenError creates a code generation error with a formatted message
func NewCodeGenError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrCodeGen)
}

// WrapCompile wraps err as a compile error with context
func WrapCompile(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrCompile)
}

// IsManifestError checks if an error is or wraps ErrManifest
func IsManifestError(err error) bool {
	return err != nil && Is(err, ErrManifest)
}

// IsFileSystemError checks if an error is or wraps ErrFileSystem
func IsFileSystemError(err error) bool {
	return err != nil && Is(err, ErrFileSystem)
}

// IsCodeGenError checks if an error is or wraps ErrCodeGen
func IsCodeGenError(err error) bool {
	return err != nil && Is(err, ErrCodeGen)
}

// IsCompileError checks if an error is or wraps ErrCompile
func IsCompileError(err error) bool {
	return err != nil && Is(err, ErrCompile)
}
