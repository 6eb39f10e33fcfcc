package runtime

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/rapport/pkg/domain"
)

// Rejection reasons carried by domain.ValidationError.Reason.
const (
	reasonEmpty      = "empty"
	reasonTooShort   = "too short"
	reasonTooLong    = "too long"
	reasonNotNumber  = "not a number"
	reasonOutOfRange = "out of range"
	reasonBadEmail   = "invalid email"
	reasonBadPhone   = "invalid phone"
	reasonBadHandle  = "invalid handle"
	reasonPattern    = "pattern mismatch"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

type freeTextHandler struct{}

func (freeTextHandler) handle(t *turn, node *domain.NodeDefinition) error {
	if t.ev.Kind != domain.EventFreeText {
		t.mismatch(node)
		return nil
	}

	value, verr := t.in.validateText(node, t.ev.Text)
	if verr != nil {
		t.in.logger.Debug("answer rejected", "user_id", t.s.UserID, "node_id", node.ID, "field", node.Field, "reason", verr.Reason)
		t.retry(node, t.in.rejection(node, verr))
		return nil
	}

	if node.Field != "" {
		t.commit(node, domain.TextValue(value))
	}
	return t.forward(node.Next)
}

func (freeTextHandler) render(i *Interpreter, s *domain.Session, node *domain.NodeDefinition, instr *domain.Instruction) {
	instr.Text = i.interpolate(s, node.Prompt)
	if s.Mode == domain.ModeEdit && node.Field != "" && s.Profile.Has(node.Field) {
		instr.Text += "\n" + fmt.Sprintf(i.messages.CurrentValue, i.display(s, node.Field))
	}
}

// validateText trims and normalises raw, then checks length bounds and the semantic type.
func (i *Interpreter) validateText(node *domain.NodeDefinition, raw string) (string, *domain.ValidationError) {
	var v domain.Validation
	if node.Validation != nil {
		v = *node.Validation
	}
	reject := func(reason string) (string, *domain.ValidationError) {
		return "", &domain.ValidationError{Field: node.Field, Reason: reason}
	}

	text := strings.TrimSpace(raw)
	if v.Type == domain.TypeHandle {
		text = normalizeHandle(text, v.Host)
	}
	if text == "" {
		return reject(reasonEmpty)
	}

	n := utf8.RuneCountInString(text)
	if v.MinLength > 0 && n < v.MinLength {
		return reject(reasonTooShort)
	}
	if v.MaxLength > 0 && n > v.MaxLength {
		return reject(reasonTooLong)
	}

	switch v.Type {
	case domain.TypeNumber:
		f, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return reject(reasonNotNumber)
		}
		if (v.Min != nil && f < *v.Min) || (v.Max != nil && f > *v.Max) {
			return reject(reasonOutOfRange)
		}
	case domain.TypeEmail:
		addr, err := mail.ParseAddress(text)
		if err != nil || addr.Address != text || !strings.Contains(text[strings.LastIndex(text, "@"):], ".") {
			return reject(reasonBadEmail)
		}
	case domain.TypePhone:
		phone, ok := normalizePhone(text)
		if !ok {
			return reject(reasonBadPhone)
		}
		text = phone
	case domain.TypeHandle:
		if !handlePattern.MatchString(text) {
			return reject(reasonBadHandle)
		}
	}

	if v.Pattern != "" {
		re, err := i.compiled(v.Pattern)
		if err != nil {
			i.logger.Warn("invalid validation pattern", "node_id", node.ID, "pattern", v.Pattern, "err", err)
		} else if !re.MatchString(text) {
			return reject(reasonPattern)
		}
	}
	return text, nil
}

// rejection picks the retry text for a rejected answer.
func (i *Interpreter) rejection(node *domain.NodeDefinition, verr *domain.ValidationError) string {
	var v domain.Validation
	if node.Validation != nil {
		v = *node.Validation
	}
	if v.Message != "" {
		return v.Message
	}
	m := i.messages
	switch verr.Reason {
	case reasonEmpty:
		return m.EmptyAnswer
	case reasonTooShort:
		return fmt.Sprintf(m.TooShort, v.MinLength)
	case reasonTooLong:
		return fmt.Sprintf(m.TooLong, v.MaxLength)
	case reasonNotNumber:
		return m.NotNumber
	case reasonOutOfRange:
		return m.OutOfRange
	case reasonBadEmail:
		return m.BadEmail
	case reasonBadPhone:
		return m.BadPhone
	case reasonBadHandle:
		return m.BadHandle
	}
	return m.BadFormat
}

// normalizeHandle strips "@", "https://host/" and "host/" decorations from a handle.
func normalizeHandle(text, host string) string {
	text = strings.TrimSpace(text)
	if host != "" {
		lower := strings.ToLower(text)
		for _, prefix := range []string{"https://", "http://", ""} {
			p := prefix + strings.ToLower(host) + "/"
			if strings.HasPrefix(lower, p) {
				text = text[len(p):]
				break
			}
		}
	}
	text = strings.TrimPrefix(text, "@")
	return strings.TrimSuffix(text, "/")
}

// normalizePhone keeps a leading "+" and the digits, dropping spaces, dashes and parentheses.
func normalizePhone(text string) (string, bool) {
	var b strings.Builder
	for idx, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && idx == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	out := b.String()
	digits := len(strings.TrimPrefix(out, "+"))
	return out, digits >= 7 && digits <= 15
}
