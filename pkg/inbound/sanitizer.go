// Package inbound cleans events received from host adapters before they reach the interpreter.
package inbound

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/rapport/pkg/domain"
)

// DefaultMaxInputSize is 4KB.
const DefaultMaxInputSize = 4096

// maxRefSize bounds option, category, item and field ids.
const maxRefSize = 256

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer enforces size limits, validates UTF-8 and strips control characters.
type Sanitizer struct {
	maxInputSize int
}

// NewSanitizer creates a Sanitizer. A non-positive limit selects DefaultMaxInputSize.
func NewSanitizer(maxInputSize int) *Sanitizer {
	if maxInputSize <= 0 {
		maxInputSize = DefaultMaxInputSize
	}
	return &Sanitizer{maxInputSize: maxInputSize}
}

// Text cleans typed user input.
// Oversized input is rejected rather than truncated so the answer is never silently changed.
func (s *Sanitizer) Text(input string) (string, error) {
	return clean(input, s.maxInputSize)
}

// Event cleans every string carried by ev.
func (s *Sanitizer) Event(ev domain.Event) (domain.Event, error) {
	var err error
	if ev.Text, err = clean(ev.Text, s.maxInputSize); err != nil {
		return domain.Event{}, fmt.Errorf("text: %w", err)
	}
	refs := []*string{&ev.Option, &ev.Category, &ev.Item, &ev.Field}
	for _, ref := range refs {
		v, err := clean(*ref, maxRefSize)
		if err != nil {
			return domain.Event{}, fmt.Errorf("%s: %w", ev.Kind, err)
		}
		*ref = strings.TrimSpace(v)
	}
	return ev, nil
}

func clean(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Newline, tab and carriage return survive; ESC, NUL, BEL and the rest are dropped.
	dirty := false
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			dirty = true
			break
		}
	}
	if !dirty {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
