package signing

import (
	"fmt"
	"os"
	"strings"
)

// Password is a deferred keystore or key password. The flag syntax follows
// the "pass:<value>" and "file:<path>" conventions; the zero value means no
// password was supplied.
type Password struct {
	value    string
	filePath string
	set      bool
}

// ParsePassword parses a password flag value. An empty string yields the
// unset Password.
func ParsePassword(flagValue string) (Password, error) {
	if flagValue == "" {
		return Password{}, nil
	}
	switch {
	case strings.HasPrefix(flagValue, "pass:"):
		return Password{value: strings.TrimPrefix(flagValue, "pass:"), set: true}, nil
	case strings.HasPrefix(flagValue, "file:"):
		return Password{filePath: strings.TrimPrefix(flagValue, "file:"), set: true}, nil
	default:
		return Password{}, fmt.Errorf("password must be prefixed with \"pass:\" or \"file:\", got %q", flagValue)
	}
}

// PlainPassword wraps a literal password value.
func PlainPassword(value string) Password {
	return Password{value: value, set: true}
}

// IsSet reports whether a password was supplied.
func (p Password) IsSet() bool {
	return p.set
}

// Resolve returns the password value, reading it from the referenced file if
// the "file:" form was used. The first line of the file is the password.
func (p Password) Resolve() (string, error) {
	if !p.set {
		return "", nil
	}
	if p.filePath == "" {
		return p.value, nil
	}
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read password file: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimRight(line, "\r"), nil
}
