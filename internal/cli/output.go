package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // validation failure: the input was rejected
	ExitCommandError = 2 // ledger integrity failure or command error
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError are command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// classify turns an engine error into an ExitError.
func classify(err error) error {
	var exitErr *ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return err
	case engine.IsValidationError(err):
		return WrapExitError(ExitFailure, "validation failed", err)
	case engine.IsLedgerIntegrityError(err):
		return WrapExitError(ExitCommandError, "ledger integrity failure", err)
	default:
		return WrapExitError(ExitCommandError, "command failed", err)
	}
}

// Response is the JSON envelope written with --format json.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// printer writes command results as text or JSON.
type printer struct {
	format string
	w      io.Writer
}

// result writes data. In text mode text renders it; in JSON mode data is
// wrapped in a Response.
func (p printer) result(data any, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	text(p.w)
	return nil
}

// failure reports err in the configured format and returns it classified.
func (p printer) failure(err error) error {
	err = classify(err)
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(Response{Status: "error", Error: err.Error()})
		return err
	}
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		for _, m := range ve.Messages {
			fmt.Fprintf(p.w, "✗ %s\n", m)
		}
	}
	return err
}

// fmtQty prints a quantity at storage precision without trailing zeros.
func fmtQty(v float64) string {
	return strconv.FormatFloat(model.Round2(v), 'f', -1, 64)
}
