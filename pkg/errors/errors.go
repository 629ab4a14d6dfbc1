// Package errors defines AppError, the structured error every OceanScout
// layer returns.  The code of an AppError decides the HTTP status, the CLI
// exit message and the metric label the failure is reported under.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AppError carries a code, a public message and optionally a detail and
// the underlying cause.
//
//	return errors.New(errors.ErrCodeProductInvalidPrice, "price must not be negative").
//		WithDetail("asin=B000TEST01")
//	return errors.Wrap(err, errors.ErrCodeDatabaseError, "list products")
type AppError struct {
	Code    ErrorCode
	Message string
	// Detail names the offending input, e.g. an ASIN or a field.
	Detail string
	Cause  error
}

// Error renders "[code] message: detail: cause", omitting empty parts.
func (e *AppError) Error() string {
	parts := []string{fmt.Sprintf("[%s] %s", e.Code, e.Message)}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError with the same code and message, so package
// level sentinels keep matching after WithDetail or WithCause copied them.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithDetail returns a copy of e with Detail set.  A nil receiver yields nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Detail = detail
	return &c
}

// WithCause returns a copy of e wrapping err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Cause = err
	return &c
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap returns nil for a nil err so it can be used inline.  With
// CodeUnknown the code of the first AppError in err's chain is inherited.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = GetCode(err)
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost AppError in err's chain,
// CodeOK for nil and CodeUnknown when the chain holds no AppError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Is and As forward to the standard library so callers need one import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }
