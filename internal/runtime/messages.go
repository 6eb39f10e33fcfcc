package runtime

import (
	"errors"
	"fmt"
)

// ErrNoCommands is returned when a command is reached without a CommandExecutor.
var ErrNoCommands = errors.New("no command executor configured")

// ErrTooManySteps is returned when soft steps chain beyond the per-dispatch limit.
var ErrTooManySteps = errors.New("too many consecutive prompt or action nodes")

// CommandError reports a failed command. The dialogue does not advance.
type CommandError struct {
	NodeID  string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q at node %s: %v", e.Command, e.NodeID, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Messages holds every text the interpreter shows on its own.
// Entries with a %d or %s verb are formatted with one argument.
type Messages struct {
	Generic      string `yaml:"generic" koanf:"generic"`
	UseButtons   string `yaml:"use_buttons" koanf:"use_buttons"`
	TypeAnswer   string `yaml:"type_answer" koanf:"type_answer"`
	ChooseOne    string `yaml:"choose_one" koanf:"choose_one"`
	NotSkippable string `yaml:"not_skippable" koanf:"not_skippable"`
	EmptyAnswer  string `yaml:"empty_answer" koanf:"empty_answer"`
	TooShort     string `yaml:"too_short" koanf:"too_short"` // %d
	TooLong      string `yaml:"too_long" koanf:"too_long"`   // %d
	NotNumber    string `yaml:"not_number" koanf:"not_number"`
	OutOfRange   string `yaml:"out_of_range" koanf:"out_of_range"`
	BadEmail     string `yaml:"bad_email" koanf:"bad_email"`
	BadPhone     string `yaml:"bad_phone" koanf:"bad_phone"`
	BadHandle    string `yaml:"bad_handle" koanf:"bad_handle"`
	BadFormat    string `yaml:"bad_format" koanf:"bad_format"`
	CurrentValue string `yaml:"current_value" koanf:"current_value"` // %s
	// Unset replaces placeholders of fields that have no answer yet.
	Unset string `yaml:"unset" koanf:"unset"`
}

// DefaultMessages returns the built-in English texts.
func DefaultMessages() Messages {
	return Messages{
		Generic:      "Something went wrong. Please try again.",
		UseButtons:   "Please use the buttons below.",
		TypeAnswer:   "Please type your answer.",
		ChooseOne:    "Please choose at least one option.",
		NotSkippable: "This question can't be skipped.",
		EmptyAnswer:  "Please send a non-empty answer.",
		TooShort:     "Please send at least %d characters.",
		TooLong:      "Please send at most %d characters.",
		NotNumber:    "Please send a number.",
		OutOfRange:   "That number is out of range.",
		BadEmail:     "That doesn't look like an email address.",
		BadPhone:     "That doesn't look like a phone number.",
		BadHandle:    "Please send a handle of 5 to 32 letters, digits or underscores.",
		BadFormat:    "That answer has the wrong format.",
		CurrentValue: "Current value: %s",
		Unset:        "-",
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.Generic, d.Generic)
	fill(&m.UseButtons, d.UseButtons)
	fill(&m.TypeAnswer, d.TypeAnswer)
	fill(&m.ChooseOne, d.ChooseOne)
	fill(&m.NotSkippable, d.NotSkippable)
	fill(&m.EmptyAnswer, d.EmptyAnswer)
	fill(&m.TooShort, d.TooShort)
	fill(&m.TooLong, d.TooLong)
	fill(&m.NotNumber, d.NotNumber)
	fill(&m.OutOfRange, d.OutOfRange)
	fill(&m.BadEmail, d.BadEmail)
	fill(&m.BadPhone, d.BadPhone)
	fill(&m.BadHandle, d.BadHandle)
	fill(&m.BadFormat, d.BadFormat)
	fill(&m.CurrentValue, d.CurrentValue)
	fill(&m.Unset, d.Unset)
	return m
}
