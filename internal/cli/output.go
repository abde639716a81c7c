package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/virti1331/cc-statement-parser/internal/models"
	"github.com/virti1331/cc-statement-parser/internal/pipeline"
)

// Exit codes for ccparse.
const (
	ExitSuccess  = 0
	ExitFailure  = 1 // unexpected failure: extraction, I/O, bad config
	ExitDocument = 2 // file not found, no text, or unsupported issuer
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
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

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, ExitFailure for any other
// error and ExitSuccess for nil.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// PrintError writes err to w the way main reports failures.
func PrintError(w io.Writer, err error) {
	errorColor.Fprintf(w, "Error: %v\n", err)
}

// documentError classifies a pipeline failure.
func documentError(path string, err error) error {
	if pipeline.IsFatal(err) {
		return WrapExitError(ExitDocument, "cannot process document", err)
	}
	return WrapExitError(ExitFailure, "failed to parse "+path, err)
}

// reportMissing lists the scalar fields the statement lacks.
func reportMissing(w io.Writer, st *models.Statement) {
	for _, f := range st.Missing {
		warningColor.Fprintf(w, "warning: %s not found\n", f)
	}
}
