package runtime

import (
	"fmt"

	"github.com/aretw0/rapport/pkg/domain"
)

// forward leaves the current node for target after a successful answer.
// In edit mode the session goes straight back to idle instead.
func (t *turn) forward(target string) error {
	t.s.Category = ""
	if t.s.Mode == domain.ModeEdit {
		t.idle()
		return nil
	}
	t.s.Push(t.s.CurrentNodeID)
	return t.enter(target)
}

// enter moves to target and runs any soft steps after it. An empty target is terminal.
func (t *turn) enter(target string) error {
	if target == "" {
		t.idle()
		return nil
	}
	if _, err := t.in.graph.Resolve(target); err != nil {
		return err
	}
	t.setNode(target)
	return t.settle()
}

// settle passes through prompt and action nodes until the session rests on a node
// that waits for input, or becomes idle.
func (t *turn) settle() error {
	for steps := 0; !t.s.IsIdle(); steps++ {
		if steps >= maxSoftSteps {
			return fmt.Errorf("node %s: %w", t.s.CurrentNodeID, ErrTooManySteps)
		}
		node, err := t.in.graph.Resolve(t.s.CurrentNodeID)
		if err != nil {
			return err
		}

		var next string
		switch node.Kind {
		case domain.KindPrompt:
			if text := t.in.interpolate(t.s, node.Prompt); text != "" {
				t.notices = append(t.notices, text)
			}
			next = node.Next
		case domain.KindAction:
			next, err = t.exec(node, node.Command)
			if err != nil {
				return err
			}
			if next == "" {
				next = node.Next
			}
		default:
			return nil
		}

		if next == "" {
			t.idle()
			return nil
		}
		if _, err := t.in.graph.Resolve(next); err != nil {
			return err
		}
		t.setNode(next)
	}
	return nil
}

// idle ends the flow: no current node, history cleared, back in fill mode.
func (t *turn) idle() {
	t.setNode("")
	t.s.History = nil
	t.s.Category = ""
	t.s.Mode = domain.ModeFill
}

// back returns to the previous screen.
func (t *turn) back() error {
	if t.s.Mode == domain.ModeEdit {
		// Uncommitted edits are dropped; the committed value stays.
		if node, err := t.in.graph.Resolve(t.s.CurrentNodeID); err == nil && node.Field != "" {
			delete(t.s.Scratch, node.Field)
		}
		t.idle()
		return nil
	}
	if t.s.Category != "" {
		t.s.Category = ""
		t.changed = true
		return nil
	}

	prev, ok := t.s.Pop()
	if !ok {
		t.in.logger.Debug("nothing to go back to", "user_id", t.s.UserID, "node_id", t.s.CurrentNodeID)
		t.kind = domain.InstructionNoop
		return nil
	}
	if _, err := t.in.graph.Resolve(prev); err != nil {
		return err
	}
	t.setNode(prev)
	return nil
}

// edit reopens the node owning field. Only an idle session can be edited.
func (t *turn) edit(field string) error {
	if !t.s.IsIdle() {
		t.in.logger.Warn("edit requested during the entry flow",
			"user_id", t.s.UserID, "node_id", t.s.CurrentNodeID, "field", field, "err", domain.ErrNotIdle)
		t.kind = domain.InstructionNoop
		return nil
	}
	owner, err := t.in.graph.OwnerOf(field)
	if err != nil {
		t.in.logger.Warn("ignoring unknown reference", "user_id", t.s.UserID, "event", t.ev.Kind, "ref", field, "err", err)
		t.kind = domain.InstructionNoop
		return nil
	}

	t.s.Mode = domain.ModeEdit
	t.s.History = nil
	t.s.Push(t.in.graph.Home())
	t.s.Category = ""
	delete(t.s.Scratch, field)
	t.setNode(owner.ID)
	return nil
}

// skip leaves a skippable node without committing anything.
func (t *turn) skip(node *domain.NodeDefinition) error {
	if !node.Skippable {
		t.in.logger.Debug("node is not skippable", "user_id", t.s.UserID, "node_id", node.ID)
		t.kind = domain.InstructionRetry
		t.notices = append(t.notices, t.in.messages.NotSkippable)
		return nil
	}
	if node.Field != "" {
		delete(t.s.Scratch, node.Field)
	}
	t.changed = true
	return t.forward(node.Next)
}
