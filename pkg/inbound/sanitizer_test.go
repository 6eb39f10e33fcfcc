package inbound

import (
	"strings"
	"testing"

	"github.com/aretw0/rapport/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_SizeLimit(t *testing.T) {
	s := NewSanitizer(0)
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Text(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizer_ControlChars(t *testing.T) {
	s := NewSanitizer(64)
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Text(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizer_InvalidUTF8(t *testing.T) {
	_, err := NewSanitizer(10).Text("\xff\xfe")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizer_Event(t *testing.T) {
	s := NewSanitizer(10)

	ev, err := s.Event(domain.MultiToggle(" lineX\x00", "StationA "))
	require.NoError(t, err)
	assert.Equal(t, "lineX", ev.Category)
	assert.Equal(t, "StationA", ev.Item)

	_, err = s.Event(domain.FreeText("this is far too long"))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = s.Event(domain.OptionSelected(strings.Repeat("x", 300)))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}
