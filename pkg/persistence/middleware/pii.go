package middleware

import (
	"context"
	"errors"
	"regexp"

	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/ports"
)

// Mask replaces redacted profile values.
const Mask = "***"

// ErrReadOnly is returned by writes through a redacting view.
var ErrReadOnly = errors.New("store is a read-only redacted view")

// Redactor masks profile fields whose names match any of its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the field-name patterns.
func NewRedactor(patterns []string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *Redactor) matches(field string) bool {
	for _, p := range r.patterns {
		if p.MatchString(field) {
			return true
		}
	}
	return false
}

// Redact returns a copy of session with matching profile and scratch values masked.
// Activity details are dropped because they can echo raw input.
func (r *Redactor) Redact(session *domain.Session) *domain.Session {
	out := session.Clone()
	for field, v := range out.Profile {
		if r.matches(field) && !v.IsEmpty() {
			out.Profile[field] = domain.TextValue(Mask)
		}
	}
	for field := range out.Scratch {
		if r.matches(field) {
			out.Scratch[field] = domain.NewSelection(Mask)
		}
	}
	for i := range out.Activity {
		out.Activity[i].Detail = ""
	}
	return out
}

type piiMiddleware struct {
	next     ports.SessionStore
	redactor *Redactor
}

// NewPIIMiddleware returns a read-only view of a store that masks personal fields on Load.
// Operator tooling reads sessions through it; writes are refused so masked values never
// reach the backend.
func NewPIIMiddleware(redactor *Redactor) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, redactor: redactor}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, userID string, session *domain.Session) error {
	return ErrReadOnly
}

func (m *piiMiddleware) Load(ctx context.Context, userID string) (*domain.Session, error) {
	s, err := m.next.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.redactor.Redact(s), nil
}

func (m *piiMiddleware) Delete(ctx context.Context, userID string) error {
	return m.next.Delete(ctx, userID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
