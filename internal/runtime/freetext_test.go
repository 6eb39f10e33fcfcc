package runtime

import (
	"testing"

	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func float(v float64) *float64 { return &v }

func TestValidateText(t *testing.T) {
	in := &Interpreter{logger: logging.NewNop(), messages: DefaultMessages()}

	tests := []struct {
		name   string
		v      domain.Validation
		input  string
		want   string
		reason string
	}{
		{name: "Trimmed", input: "  hi  ", want: "hi"},
		{name: "Empty", input: "   ", reason: reasonEmpty},
		{name: "Too short", v: domain.Validation{MinLength: 3}, input: "ab", reason: reasonTooShort},
		{name: "Runes not bytes", v: domain.Validation{MaxLength: 4}, input: "Жора", want: "Жора"},
		{name: "Too long", v: domain.Validation{MaxLength: 3}, input: "abcd", reason: reasonTooLong},
		{name: "Number", v: domain.Validation{Type: domain.TypeNumber, Min: float(16), Max: float(100)}, input: "42", want: "42"},
		{name: "Decimal comma", v: domain.Validation{Type: domain.TypeNumber}, input: "1,5", want: "1,5"},
		{name: "Not a number", v: domain.Validation{Type: domain.TypeNumber}, input: "forty", reason: reasonNotNumber},
		{name: "NaN is not a number", v: domain.Validation{Type: domain.TypeNumber}, input: "NaN", reason: reasonNotNumber},
		{name: "Below range", v: domain.Validation{Type: domain.TypeNumber, Min: float(16)}, input: "15", reason: reasonOutOfRange},
		{name: "Above range", v: domain.Validation{Type: domain.TypeNumber, Max: float(100)}, input: "130", reason: reasonOutOfRange},
		{name: "Email", v: domain.Validation{Type: domain.TypeEmail}, input: "ann@example.org", want: "ann@example.org"},
		{name: "Email with name", v: domain.Validation{Type: domain.TypeEmail}, input: "Ann <ann@example.org>", reason: reasonBadEmail},
		{name: "Email without domain dot", v: domain.Validation{Type: domain.TypeEmail}, input: "ann@localhost", reason: reasonBadEmail},
		{name: "Phone", v: domain.Validation{Type: domain.TypePhone}, input: "+7 (912) 345-67-89", want: "+79123456789"},
		{name: "Phone too short", v: domain.Validation{Type: domain.TypePhone}, input: "12-34", reason: reasonBadPhone},
		{name: "Phone with letters", v: domain.Validation{Type: domain.TypePhone}, input: "call me", reason: reasonBadPhone},
		{name: "Handle", v: domain.Validation{Type: domain.TypeHandle}, input: "@ann_channel", want: "ann_channel"},
		{name: "Handle link", v: domain.Validation{Type: domain.TypeHandle, Host: "t.me"}, input: "https://t.me/ann_channel", want: "ann_channel"},
		{name: "Handle bare host", v: domain.Validation{Type: domain.TypeHandle, Host: "t.me"}, input: "T.me/ann_channel/", want: "ann_channel"},
		{name: "Handle too short", v: domain.Validation{Type: domain.TypeHandle}, input: "@ann", reason: reasonBadHandle},
		{name: "Handle bad chars", v: domain.Validation{Type: domain.TypeHandle}, input: "ann-channel", reason: reasonBadHandle},
		{name: "Pattern", v: domain.Validation{Pattern: `^[a-z]+$`}, input: "abc", want: "abc"},
		{name: "Pattern mismatch", v: domain.Validation{Pattern: `^[a-z]+$`}, input: "ABC", reason: reasonPattern},
		{name: "Invalid pattern is skipped", v: domain.Validation{Pattern: `(`}, input: "abc", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.v
			node := &domain.NodeDefinition{ID: "n", Kind: domain.KindFreeText, Field: "f", Validation: &v}
			got, verr := in.validateText(node, tt.input)
			if tt.reason != "" {
				if assert.NotNil(t, verr) {
					assert.Equal(t, tt.reason, verr.Reason)
					assert.Equal(t, "f", verr.Field)
				}
				return
			}
			assert.Nil(t, verr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRejectionMessages(t *testing.T) {
	in := &Interpreter{logger: logging.NewNop(), messages: DefaultMessages()}

	node := &domain.NodeDefinition{ID: "n", Validation: &domain.Validation{MinLength: 3}}
	assert.Equal(t, "Please send at least 3 characters.", in.rejection(node, &domain.ValidationError{Reason: reasonTooShort}))

	node.Validation.Message = "Custom"
	assert.Equal(t, "Custom", in.rejection(node, &domain.ValidationError{Reason: reasonTooShort}))

	bare := &domain.NodeDefinition{ID: "n"}
	assert.Equal(t, DefaultMessages().BadFormat, in.rejection(bare, &domain.ValidationError{Reason: reasonPattern}))
}

func TestMessages_WithDefaults(t *testing.T) {
	m := Messages{Generic: "Oops"}.withDefaults()
	assert.Equal(t, "Oops", m.Generic)
	assert.Equal(t, DefaultMessages().ChooseOne, m.ChooseOne)
}
