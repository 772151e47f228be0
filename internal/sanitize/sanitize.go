// Package sanitize cleans untrusted text before it reaches prompts or logs.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxPromptSize is 8KB.
	DefaultMaxPromptSize = 8192
	// EnvMaxPromptSize is the environment variable to override the default.
	EnvMaxPromptSize = "CANOPY_MAX_PROMPT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrEmptyInput    = errors.New("input is empty")
)

// Prompt cleans a natural-language prompt: it must be non-blank, within the size
// limit and valid UTF-8. Control characters other than newline, tab and carriage
// return are stripped.
func Prompt(input string) (string, error) {
	return PromptWithLimit(input, MaxPromptSize())
}

// PromptWithLimit is Prompt with an explicit byte limit.
func PromptWithLimit(input string, limit int) (string, error) {
	// Reject rather than truncate so the model never sees half a request.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	out := StripControl(input)
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyInput
	}
	return out, nil
}

// StripControl removes control characters except newline, tab and carriage return.
// ESC, NUL and BEL are dropped to prevent log poisoning and terminal corruption.
func StripControl(input string) string {
	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxPromptSize returns the configured limit.
func MaxPromptSize() int {
	if val := os.Getenv(EnvMaxPromptSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxPromptSize
}
