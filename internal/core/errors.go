package core

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrParse             ErrorCode = "PARSE_ERROR"
	ErrSymbolUnavailable ErrorCode = "SYMBOL_UNAVAILABLE"
	ErrVolumeOutOfRange  ErrorCode = "VOLUME_OUT_OF_RANGE"
	ErrVenueRejected     ErrorCode = "VENUE_REJECTED"
	ErrConnection        ErrorCode = "CONNECTION_ERROR"
)

// ErrRefused marks a venue call that reached the terminal and was turned
// down there, as opposed to a transport failure. Venues wrap it with %w.
var ErrRefused = errors.New("refused by venue")

// Error is a relay failure with a code and log-only details.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]interface{})}
}

func WrapError(code ErrorCode, message string, wrapped error) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]interface{}), Wrapped: wrapped}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// DetailsOf returns the details of the first *Error in err's chain.
func DetailsOf(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
