package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrExternalService = errors.New("external service error")
	ErrPersistence     = errors.New("persistence error")
)

var kindByCode = map[int]error{
	http.StatusBadRequest:          ErrValidation,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusBadGateway:          ErrExternalService,
	http.StatusServiceUnavailable:  ErrExternalService,
	http.StatusInternalServerError: ErrPersistence,
}

// AppError is an error with the HTTP status it should be reported with.
// errors.Is matches both its kind and the wrapped cause.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	kind    error
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		kind:    kindByCode[code],
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func Validation(message string) error {
	return NewAppError(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) error {
	return NewAppError(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) error {
	return NewAppError(http.StatusForbidden, message, nil)
}

func NotFound(message string) error {
	return NewAppError(http.StatusNotFound, message, nil)
}

func Conflict(message string) error {
	return NewAppError(http.StatusConflict, message, nil)
}

func External(message string, err error) error {
	return NewAppError(http.StatusBadGateway, message, err)
}

func Persistence(message string, err error) error {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// HTTPStatus maps any error to the status code it should be reported with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing part of err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return http.StatusText(HTTPStatus(err))
}
