package runtime

import (
	"regexp"
	"strings"

	"github.com/aretw0/rapport/pkg/domain"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// render builds the outbound instruction for s. t carries the outcome of the dispatch, if any.
func (i *Interpreter) render(s *domain.Session, t *turn) domain.Instruction {
	instr := domain.Instruction{
		Kind:       domain.InstructionPrompt,
		UserID:     s.UserID,
		NodeID:     s.CurrentNodeID,
		Mode:       s.Mode,
		Projection: i.projection.Project(s.Profile),
	}

	if s.IsIdle() {
		instr.Kind = domain.InstructionIdle
		i.renderIdle(s, &instr)
	} else {
		node, err := i.graph.Resolve(s.CurrentNodeID)
		if err != nil {
			return i.failure(s.UserID, nil)
		}
		instr.NodeKind = node.Kind
		instr.Field = node.Field
		if h, ok := handlers[node.Kind]; ok {
			h.render(i, s, node, &instr)
		} else {
			instr.Text = i.interpolate(s, node.Prompt)
		}
		instr.CanGoBack = len(s.History) > 0 || s.Category != "" || s.Mode == domain.ModeEdit
		instr.CanSkip = node.Skippable
	}

	if t != nil {
		instr.Notices = append(instr.Notices, t.notices...)
		if t.kind != "" {
			instr.Kind = t.kind
		}
		instr.Link = t.link
	}
	return instr
}

// renderIdle shows the home node, or a field summary, with one edit button per field.
func (i *Interpreter) renderIdle(s *domain.Session, instr *domain.Instruction) {
	if home := i.graph.Home(); home != "" {
		if node, err := i.graph.Resolve(home); err == nil {
			instr.Text = i.interpolate(s, node.Prompt)
		}
	}

	fields := i.projection.Fields()
	var summary []string
	for _, f := range fields {
		instr.Options = append(instr.Options, domain.RenderOption{
			ID:       f.Name,
			Text:     f.DisplayLabel(),
			Selected: s.Profile.Has(f.Name),
		})
		summary = append(summary, f.DisplayLabel()+": "+i.displayOrUnset(s, f.Name))
	}
	if instr.Text == "" {
		instr.Text = strings.Join(summary, "\n")
	}
}

// failure is the generic error screen. s may be nil when the session is unavailable.
func (i *Interpreter) failure(userID string, s *domain.Session) domain.Instruction {
	instr := domain.Instruction{
		Kind:   domain.InstructionError,
		UserID: userID,
		Mode:   domain.ModeFill,
		Text:   i.messages.Generic,
	}
	if s == nil {
		return instr
	}
	instr.NodeID = s.CurrentNodeID
	instr.Mode = s.Mode
	instr.Projection = i.projection.Project(s.Profile)
	if s.IsIdle() {
		return instr
	}
	if node, err := i.graph.Resolve(s.CurrentNodeID); err == nil {
		instr.NodeKind = node.Kind
		instr.Field = node.Field
		if h, ok := handlers[node.Kind]; ok {
			var screen domain.Instruction
			h.render(i, s, node, &screen)
			instr.Options = screen.Options
			instr.Selected = screen.Selected
			instr.Category = screen.Category
		}
	}
	return instr
}

// interpolate replaces {field} placeholders with the display value of profile fields.
// Placeholders that do not name a field are left as they are.
func (i *Interpreter) interpolate(s *domain.Session, text string) string {
	if !strings.Contains(text, "{") {
		return strings.TrimSpace(text)
	}
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		if _, ok := i.projection.Field(name); !ok {
			return m
		}
		return i.displayOrUnset(s, name)
	})
	return strings.TrimSpace(out)
}

func (i *Interpreter) displayOrUnset(s *domain.Session, field string) string {
	if v := i.display(s, field); v != "" {
		return v
	}
	return i.messages.Unset
}

// display renders a committed value: item labels for selections, option captions for
// single choices, the raw text otherwise.
func (i *Interpreter) display(s *domain.Session, field string) string {
	v := s.Profile.Get(field)
	if v.IsEmpty() {
		return ""
	}
	if v.IsMulti() {
		labels := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			labels = append(labels, i.catalog.Label(item))
		}
		return strings.Join(labels, ", ")
	}
	if owner, err := i.graph.OwnerOf(field); err == nil && owner.Kind == domain.KindSingleChoice {
		for _, opt := range owner.Options {
			if optionValue(opt) == v.Text {
				return opt.Text
			}
		}
	}
	return v.Text
}
