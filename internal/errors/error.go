package errors

import (
	"errors"
	"fmt"
)

var (
	ErrOutputExists      = errors.New("output file already exists; use --overwrite to replace it")
	ErrEmptyBundle       = errors.New("bundle contains no modules")
	ErrMissingBaseModule = errors.New("bundle must contain a 'base' module")
)

// ErrNoStampKey is raised when a stamp was requested but no signing identity
// could be resolved for it. It is a configuration error.
var ErrNoStampKey = &InvalidCommandError{Message: "No key was found to sign the stamp."}

// InvalidCommandError is a user-fixable configuration error: an invalid flag
// combination or a missing required field. It is never retried or defaulted.
type InvalidCommandError struct {
	Message string
}

func (e *InvalidCommandError) Error() string {
	return e.Message
}

// InvalidCommand builds an InvalidCommandError with a formatted message.
func InvalidCommand(format string, args ...interface{}) error {
	return &InvalidCommandError{Message: fmt.Sprintf(format, args...)}
}

// IsInvalidCommand reports whether err is a configuration error.
func IsInvalidCommand(err error) bool {
	var ice *InvalidCommandError
	return errors.As(err, &ice)
}

// ContentComparisonError generates a formatted error for a failed content
// comparison between two module entries.
func ContentComparisonError(path1, path2 string, cause error) error {
	return fmt.Errorf("failed to compare contents of module entries '%s' and '%s': %w", path1, path2, cause)
}

// MissingFlagError generates the error for a flag that is required by
// another flag that was set.
func MissingFlagError(missing, set string) error {
	return InvalidCommand("Flag --%s is required when --%s is set.", missing, set)
}
