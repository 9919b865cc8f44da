package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IDValidationConfig contains rules for advertisement ids before they become cache keys.
type IDValidationConfig struct {
	ReservedPatterns  []string
	MaxLength         int
	AllowControlChars bool
	AllowWhitespace   bool
}

func DefaultIDValidationConfig() IDValidationConfig {
	return IDValidationConfig{
		MaxLength:         256,
		AllowControlChars: false,
		AllowWhitespace:   false,
	}
}

// IDValidator rejects ids that cannot be used as namespaced cache keys.
type IDValidator struct {
	config IDValidationConfig
}

func NewIDValidator(config IDValidationConfig) *IDValidator {
	return &IDValidator{config: config}
}

// Validate returns an error wrapping ErrInvalidKey when id is unusable.
func (v *IDValidator) Validate(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidKey)
	}

	if v.config.MaxLength > 0 && len(id) > v.config.MaxLength {
		return fmt.Errorf("%w: id length %d exceeds maximum %d bytes",
			ErrInvalidKey, len(id), v.config.MaxLength)
	}

	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: id contains invalid UTF-8", ErrInvalidKey)
	}

	for i, r := range id {
		if !v.config.AllowControlChars && (r < 32 || r == 127) {
			return fmt.Errorf("%w: id contains control character at position %d", ErrInvalidKey, i)
		}
		if !v.config.AllowWhitespace && unicode.IsSpace(r) {
			return fmt.Errorf("%w: id contains whitespace at position %d", ErrInvalidKey, i)
		}
	}

	for _, pattern := range v.config.ReservedPatterns {
		if strings.Contains(id, pattern) {
			return fmt.Errorf("%w: id contains reserved pattern %q", ErrInvalidKey, pattern)
		}
	}

	return nil
}

// IsInvalidKey returns true if the error indicates an invalid id or key.
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}
