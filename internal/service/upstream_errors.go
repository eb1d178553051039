package service

import (
	"database/sql"
	"errors"

	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

// passThrough keeps classified upstream errors intact and maps everything else.
func passThrough(err error, notFound, fallback string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func validationError(message string, details interface{}) error {
	return appErrors.WithDetails(appErrors.ErrValidation, message, details)
}
