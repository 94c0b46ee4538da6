package common

import (
	"errors"
	"fmt"
)

// Codes carried by AppError. Entry points map them to exit codes.
const (
	CodeConfig   = "CONFIG_ERROR"
	CodeDatabase = "DB_ERROR"
	CodeStorage  = "STORAGE_ERROR"
	CodeLLM      = "LLM_ERROR"
)

// AppError is a failure while wiring the application, as opposed to a
// failure of a single event run.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")

	// matched by the typed errors of the decode, shape and build steps
	ErrDecode     = errors.New("decode failed")
	ErrStructure  = errors.New("unexpected structure")
	ErrValidation = errors.New("validation failed")

	ErrAlreadyProcessed = errors.New("event already processed")
)
