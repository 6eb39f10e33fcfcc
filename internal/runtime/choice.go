package runtime

import (
	"strings"

	"github.com/aretw0/rapport/pkg/domain"
)

type choiceHandler struct{}

func (choiceHandler) handle(t *turn, node *domain.NodeDefinition) error {
	var opt domain.Option
	switch t.ev.Kind {
	case domain.EventOptionSelected:
		found, ok := node.FindOption(t.ev.Option)
		if !ok {
			t.ignore(node, domain.ErrUnknownOption, t.ev.Option)
			return nil
		}
		opt = found
	case domain.EventFreeText:
		// Typing the caption of a button counts as pressing it.
		found, ok := matchCaption(node, t.ev.Text)
		if !ok {
			t.mismatch(node)
			return nil
		}
		opt = found
	default:
		t.mismatch(node)
		return nil
	}

	if opt.Action.Kind == domain.ActionURL {
		t.kind = domain.InstructionLink
		t.link = opt.Action.Target
		return nil
	}

	if node.Field != "" {
		t.commit(node, domain.TextValue(optionValue(opt)))
	}

	switch opt.Action.Kind {
	case domain.ActionGoto:
		return t.forward(opt.Action.Target)
	case domain.ActionCommand:
		next, err := t.exec(node, opt.Action.Target)
		if err != nil {
			return err
		}
		if next == "" {
			next = node.Next
		}
		return t.forward(next)
	default:
		return t.forward(node.Next)
	}
}

func (choiceHandler) render(i *Interpreter, s *domain.Session, node *domain.NodeDefinition, instr *domain.Instruction) {
	instr.Text = i.interpolate(s, node.Prompt)
	committed := s.Profile.Get(node.Field).Text
	for _, opt := range node.Options {
		ro := domain.RenderOption{
			ID:   opt.ID,
			Text: i.interpolate(s, opt.Text),
		}
		if opt.Action.Kind == domain.ActionURL {
			ro.URL = opt.Action.Target
		}
		if node.Field != "" && committed != "" && committed == optionValue(opt) {
			ro.Selected = true
		}
		instr.Options = append(instr.Options, ro)
	}
}

// optionValue is what an option commits: its value, or its id.
func optionValue(opt domain.Option) string {
	if opt.Value != "" {
		return opt.Value
	}
	return opt.ID
}

func matchCaption(node *domain.NodeDefinition, text string) (domain.Option, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Option{}, false
	}
	for _, opt := range node.Options {
		if strings.EqualFold(opt.Text, text) {
			return opt, true
		}
	}
	return domain.Option{}, false
}
