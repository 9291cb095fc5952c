// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Caller-input problems (an unknown category, a malformed snapshot file) are
// always returned as a StructuredError so callers can branch on the code:
//
//	items, err := query.Extract(snap, "ldevs")
//	if errors.IsCode(err, errors.ErrCodeCategoryUnavailable) {
//	    // the fetch for ldevs failed during collection
//	}
//
// Source fetch failures are never returned from a collection run; they are
// recorded in the snapshot as failed categories instead.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeCategoryUnavailable,
//	    "category unavailable",
//	    cause,
//	    map[string]any{
//	        "category": "ldevs",
//	    },
//	)
package errors
