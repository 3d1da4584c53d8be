package errors

import (
	stderrors "errors"
	"fmt"
)

// FromError converts any error to an AppError. An AppError anywhere in the
// chain is surfaced as-is; anything else becomes a 500 so internal failure
// detail never leaks into a response code.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalServerError(
		"INTERNAL_ERROR",
		fmt.Sprintf("An unexpected error occurred: %s", err.Error()),
	)
}
