// Package profile derives completeness and progress from collected profile values.
// Everything here is a pure function of its inputs.
package profile

import "github.com/aretw0/rapport/pkg/domain"

// Field describes one collected profile field.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required"`
	// Multi marks fields committed as item sets.
	Multi bool `json:"multi,omitempty"`
}

// DisplayLabel returns Label, or Name when no label is set.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Projection evaluates profiles against an ordered field list.
type Projection struct {
	fields []Field
}

// New creates a Projection. Later duplicates of a field name are ignored.
func New(fields []Field) *Projection {
	seen := make(map[string]bool, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return &Projection{fields: out}
}

// Fields returns the ordered field list.
func (p *Projection) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

// Field looks up one field by name.
func (p *Projection) Field(name string) (Field, bool) {
	for _, f := range p.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// filled is the non-empty predicate: trimmed text, or at least one item.
func filled(profile domain.Profile, name string) bool {
	v, ok := profile[name]
	return ok && !v.IsEmpty()
}

// IsComplete reports whether every required field is filled.
// Optional fields never affect completeness.
func (p *Projection) IsComplete(profile domain.Profile) bool {
	for _, f := range p.fields {
		if f.Required && !filled(profile, f.Name) {
			return false
		}
	}
	return true
}

// Progress counts filled fields, split by required and optional.
func (p *Projection) Progress(profile domain.Profile) domain.Progress {
	var out domain.Progress
	for _, f := range p.fields {
		done := filled(profile, f.Name)
		if f.Required {
			out.RequiredTotal++
			if done {
				out.RequiredDone++
			}
			continue
		}
		out.OptionalTotal++
		if done {
			out.OptionalDone++
		}
	}
	return out
}

// Missing lists required fields that are still empty, in field order.
func (p *Projection) Missing(profile domain.Profile) []Field {
	var out []Field
	for _, f := range p.fields {
		if f.Required && !filled(profile, f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// Project bundles completeness and progress for an instruction.
func (p *Projection) Project(profile domain.Profile) domain.Projection {
	return domain.Projection{
		Complete: p.IsComplete(profile),
		Progress: p.Progress(profile),
	}
}
