package runtime

import (
	"github.com/aretw0/rapport/pkg/domain"
)

// multiChoiceHandler drives the category drill-down: the node screen lists categories,
// a category screen lists toggleable items, and Done commits the scratch selection.
type multiChoiceHandler struct{}

func (multiChoiceHandler) handle(t *turn, node *domain.NodeDefinition) error {
	key := node.CatalogKey()
	switch t.ev.Kind {
	case domain.EventCategoryOpened:
		return openCategory(t, node, t.ev.Category)
	case domain.EventOptionSelected:
		if _, ok := t.in.catalog.Category(key, t.ev.Option); ok {
			return openCategory(t, node, t.ev.Option)
		}
		if t.s.Category != "" {
			return toggle(t, node, t.s.Category, t.ev.Option)
		}
		t.ignore(node, domain.ErrUnknownItem, t.ev.Option)
		return nil
	case domain.EventMultiToggle:
		return toggle(t, node, t.ev.Category, t.ev.Item)
	case domain.EventDone:
		if t.ev.Field != node.Field {
			t.ignore(node, domain.ErrUnknownField, t.ev.Field)
			return nil
		}
		return done(t, node)
	default:
		t.mismatch(node)
		return nil
	}
}

func openCategory(t *turn, node *domain.NodeDefinition, category string) error {
	if _, ok := t.in.catalog.Category(node.CatalogKey(), category); !ok {
		t.ignore(node, domain.ErrUnknownItem, category)
		return nil
	}
	t.s.Category = category
	t.changed = true
	return nil
}

func toggle(t *turn, node *domain.NodeDefinition, category, item string) error {
	key := node.CatalogKey()
	if !t.in.catalog.Contains(key, category, item) {
		t.ignore(node, domain.ErrUnknownItem, category+"/"+item)
		return nil
	}
	sel := t.s.ScratchFor(node.Field).ToggleExclusive(item, t.in.catalog.Sentinel(key))
	t.s.SetScratch(node.Field, sel)
	t.s.Category = category
	t.changed = true
	return nil
}

func done(t *turn, node *domain.NodeDefinition) error {
	sel := t.s.ScratchFor(node.Field)
	if sel.IsEmpty() {
		t.in.logger.Debug("empty selection", "user_id", t.s.UserID, "node_id", node.ID, "field", node.Field)
		t.retry(node, t.in.messages.ChooseOne)
		return nil
	}
	t.commit(node, domain.ItemsValue(sel))
	return t.forward(node.Next)
}

func (multiChoiceHandler) render(i *Interpreter, s *domain.Session, node *domain.NodeDefinition, instr *domain.Instruction) {
	key := node.CatalogKey()
	sel := s.ScratchFor(node.Field)
	instr.Text = i.interpolate(s, node.Prompt)
	instr.Selected = sel.Items()
	instr.Category = s.Category

	if s.Category == "" {
		for _, cat := range i.catalog.CategoriesOf(key) {
			picked := false
			for _, item := range cat.Items {
				if sel.Contains(item) {
					picked = true
					break
				}
			}
			instr.Options = append(instr.Options, domain.RenderOption{
				ID:       cat.ID,
				Text:     i.catalog.CategoryLabel(key, cat.ID),
				Selected: picked,
			})
		}
		return
	}

	cat, ok := i.catalog.Category(key, s.Category)
	if !ok {
		return
	}
	for _, item := range cat.Items {
		instr.Options = append(instr.Options, domain.RenderOption{
			ID:       item,
			Text:     i.catalog.Label(item),
			Selected: sel.Contains(item),
		})
	}
}
