// Package planerr provides the uniform planning error and the coercion
// step that attaches statement text to it.
package planerr

import (
	"errors"
	"fmt"
)

// Category classifies a planning failure.
type Category string

// Planning error categories.
const (
	CategoryFeatureDisabled     Category = "FEATURE_DISABLED"
	CategoryNotFound            Category = "NOT_FOUND"
	CategoryNotMutable          Category = "NOT_MUTABLE"
	CategoryPermissionDenied    Category = "PERMISSION_DENIED"
	CategoryIncompatibleOptions Category = "INCOMPATIBLE_OPTIONS"
	CategoryVersionResolution   Category = "VERSION_RESOLUTION_FAILED"
	CategorySchemaIncompatible  Category = "SCHEMA_INCOMPATIBLE"
	CategoryUnsupported         Category = "UNSUPPORTED"
	CategoryConcurrencyConflict Category = "CONCURRENCY_CONFLICT"
	CategoryInternal            Category = "INTERNAL"
	CategoryPlanning            Category = "PLANNING"
)

// Error is the single user-facing planning error.
type Error struct {
	Category Category
	Message  string
	// SQL is the original statement text; set once by Coerce.
	SQL   string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.SQL == "" {
		return msg
	}
	return fmt.Sprintf("%s\nSQL Query: %s", msg, e.SQL)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the caller may retry the operation as is.
func (e *Error) Retryable() bool {
	return e.Category == CategoryConcurrencyConflict
}

func newf(c Category, cause error, format string, args ...any) *Error {
	return &Error{Category: c, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// FeatureDisabled reports a statement gated off by configuration.
func FeatureDisabled(format string, args ...any) *Error {
	return newf(CategoryFeatureDisabled, nil, format, args...)
}

// NotFound reports a missing table, source or version.
func NotFound(format string, args ...any) *Error {
	return newf(CategoryNotFound, nil, format, args...)
}

// NotMutable reports a target that cannot accept writes.
func NotMutable(format string, args ...any) *Error {
	return newf(CategoryNotMutable, nil, format, args...)
}

// PermissionDenied reports a missing privilege.
func PermissionDenied(format string, args ...any) *Error {
	return newf(CategoryPermissionDenied, nil, format, args...)
}

// IncompatibleOptions reports mutually exclusive statement options.
func IncompatibleOptions(format string, args ...any) *Error {
	return newf(CategoryIncompatibleOptions, nil, format, args...)
}

// VersionResolution reports an unresolvable branch, tag or commit.
func VersionResolution(cause error, format string, args ...any) *Error {
	return newf(CategoryVersionResolution, cause, format, args...)
}

// SchemaIncompatible reports a field list the target cannot accept.
func SchemaIncompatible(format string, args ...any) *Error {
	return newf(CategorySchemaIncompatible, nil, format, args...)
}

// Unsupported reports a format or reference the write path cannot handle.
func Unsupported(format string, args ...any) *Error {
	return newf(CategoryUnsupported, nil, format, args...)
}

// Conflict reports a lost compare-and-swap race in the metadata store.
func Conflict(cause error, format string, args ...any) *Error {
	return newf(CategoryConcurrencyConflict, cause, format, args...)
}

// Internal reports a programming-contract violation.
func Internal(format string, args ...any) *Error {
	return newf(CategoryInternal, nil, format, args...)
}

// Coerce converts any planning failure into a uniform *Error carrying sql.
// Coercing an error that already carries statement text returns it unchanged,
// so Coerce(sql, Coerce(sql, err)) == Coerce(sql, err).
func Coerce(sql string, err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		if pe.SQL != "" {
			return pe
		}
		coerced := *pe
		coerced.SQL = sql
		return &coerced
	}

	return &Error{
		Category: CategoryPlanning,
		Message:  err.Error(),
		SQL:      sql,
		Cause:    err,
	}
}

// Is reports whether err carries a planning error of category c.
func Is(err error, c Category) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Category == c
}

// CategoryOf returns the category of err, or "" for nil.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryPlanning
}
