// Package errors provides error handling for pixel.
//
// This package re-exports github.com/cockroachdb/errors and adds the pipeline
// error taxonomy. Every terminal failure of a run is marked with exactly one
// of the Err* sentinels so callers can classify it with errors.Is while the
// message keeps the underlying cause:
//
//	if err := os.ReadFile(path); err != nil {
//	    return errors.WrapKind(err, errors.ErrTemplateNotFound, "template %q", ref)
//	}
//
//	if errors.Is(err, errors.ErrConfigNotFound) {
//	    // nothing was sent to the model
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"context"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
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
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Pipeline error taxonomy. All of them are terminal for a run.
var (
	// ErrConfigNotFound indicates the job identifier did not resolve to a config file.
	ErrConfigNotFound = New("config not found")

	// ErrConfigInvalid indicates a config file or a setting is missing required fields or is malformed.
	ErrConfigInvalid = New("config invalid")

	// ErrTemplateNotFound indicates the template body could not be located.
	ErrTemplateNotFound = New("template not found")

	// ErrRender indicates variable substitution failed or produced empty output.
	ErrRender = New("render error")

	// ErrInvocation indicates the inference call failed (transport, auth, status, timeout).
	ErrInvocation = New("invocation error")

	// ErrPersistence indicates a local write or remote upload failed.
	ErrPersistence = New("persistence error")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrConfigNotFound, "ConfigNotFound"},
	{ErrConfigInvalid, "ConfigInvalid"},
	{ErrTemplateNotFound, "TemplateNotFound"},
	{ErrRender, "RenderError"},
	{ErrInvocation, "InvocationError"},
	{ErrPersistence, "PersistenceError"},
}

// NewKind creates a formatted error marked with the given taxonomy sentinel.
func NewKind(kind error, format string, args ...interface{}) error {
	return Mark(Newf(format, args...), kind)
}

// WrapKind wraps err with a formatted message and marks it with the given
// taxonomy sentinel. A nil err returns nil.
func WrapKind(err error, kind error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(Wrapf(err, format, args...), kind)
}

// Kind returns the taxonomy name of err ("ConfigNotFound", "RenderError", ...),
// "Cancelled" for context cancellation, and "Error" for anything else.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if Is(err, k.err) {
			return k.name
		}
	}
	if Is(err, context.Canceled) {
		return "Cancelled"
	}
	return "Error"
}
