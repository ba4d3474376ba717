package deploy

import (
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

// Exit codes of package-installer.
const (
	// ExitUsage reports invalid or missing options.
	ExitUsage = 100
	// ExitDeployFailed reports a connector that could not be staged.
	ExitDeployFailed = 101
	// ExitInstallFault reports a failure during installation, remote or local.
	ExitInstallFault = 102
)

var (
	// errMissingOptions is returned when required options are absent.
	errMissingOptions = errors.New("required options are missing")
	// errDeployFolderNotFound is returned when the deploy folder does not exist.
	errDeployFolderNotFound = errors.New("deploy folder not found")
)

// ExitError is a failure that has already been reported to the operator.
type ExitError struct {
	// Code is the process exit code.
	Code int
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d: %v", e.Code, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// PrintError writes an operator error followed by the help hint.
func PrintError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "Error: %s\nTry `package-installer --help' for more information.\n", sentence(message))
}

// sentence upper-cases the first letter of message.
func sentence(message string) string {
	r, size := utf8.DecodeRuneInString(message)
	if r == utf8.RuneError {
		return message
	}

	return string(unicode.ToUpper(r)) + message[size:]
}
