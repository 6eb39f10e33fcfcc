package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/rapport/pkg/domain"
)

// nodeHandler consumes events and renders screens for one node kind.
type nodeHandler interface {
	handle(t *turn, node *domain.NodeDefinition) error
	render(i *Interpreter, s *domain.Session, node *domain.NodeDefinition, instr *domain.Instruction)
}

var handlers = map[domain.NodeKind]nodeHandler{
	domain.KindFreeText:     freeTextHandler{},
	domain.KindSingleChoice: choiceHandler{},
	domain.KindMultiChoice:  multiChoiceHandler{},
}

// turn is the working state of one dispatch. It only lives inside the Manager's mutator.
type turn struct {
	in  *Interpreter
	ctx context.Context
	s   *domain.Session
	ev  domain.Event

	// kind overrides the rendered instruction kind (retry, link, noop).
	kind    domain.InstructionKind
	notices []string
	link    string
	changed bool

	hooks []func(context.Context, domain.LifecycleHooks)
}

func (t *turn) run() error {
	switch t.ev.Kind {
	case domain.EventBack:
		return t.back()
	case domain.EventEditField:
		return t.edit(t.ev.Field)
	}

	if t.s.IsIdle() {
		// Idle screens offer one button per field; a press reopens that field.
		if t.ev.Kind == domain.EventOptionSelected {
			if _, err := t.in.graph.OwnerOf(t.ev.Option); err == nil {
				return t.edit(t.ev.Option)
			}
		}
		t.in.logger.Debug("event ignored while idle", "user_id", t.s.UserID, "event", t.ev.Kind)
		t.kind = domain.InstructionNoop
		return nil
	}

	node, err := t.in.graph.Resolve(t.s.CurrentNodeID)
	if err != nil {
		return err
	}
	if !node.Kind.WaitsForInput() {
		return t.settle()
	}
	if t.ev.Kind == domain.EventSkip {
		return t.skip(node)
	}
	return handlers[node.Kind].handle(t, node)
}

// setNode moves the session and queues the leave/enter hooks.
func (t *turn) setNode(id string) {
	prev := t.s.CurrentNodeID
	t.s.CurrentNodeID = id
	t.changed = true
	if prev == id {
		return
	}
	if prev != "" {
		ev := t.nodeEvent(prev)
		t.queue(func(ctx context.Context, h domain.LifecycleHooks) {
			if h.OnNodeLeave != nil {
				h.OnNodeLeave(ctx, ev)
			}
		})
	}
	if id != "" {
		ev := t.nodeEvent(id)
		t.queue(func(ctx context.Context, h domain.LifecycleHooks) {
			if h.OnNodeEnter != nil {
				h.OnNodeEnter(ctx, ev)
			}
		})
		t.arrive(id)
	}
}

// arrive restores the committed items of a multi-select node that has no scratch state,
// so that reopened fields start from what the user already chose.
func (t *turn) arrive(id string) {
	node, err := t.in.graph.Resolve(id)
	if err != nil || node.Kind != domain.KindMultiChoice || node.Field == "" {
		return
	}
	if _, ok := t.s.Scratch[node.Field]; ok {
		return
	}
	if committed := t.s.Profile.Get(node.Field); committed.IsMulti() {
		t.s.SetScratch(node.Field, committed.Items)
	}
}

func (t *turn) nodeEvent(id string) *domain.NodeEvent {
	ev := &domain.NodeEvent{UserID: t.s.UserID, NodeID: id}
	if n, err := t.in.graph.Resolve(id); err == nil {
		ev.Kind = n.Kind
	}
	return ev
}

// commit stores value under the node's field and queues the commit hook.
func (t *turn) commit(node *domain.NodeDefinition, value domain.Value) {
	t.s.Commit(node.Field, value)
	t.changed = true
	ev := &domain.CommitEvent{
		UserID:   t.s.UserID,
		NodeID:   node.ID,
		Field:    node.Field,
		Complete: t.in.projection.IsComplete(t.s.Profile),
	}
	t.queue(func(ctx context.Context, h domain.LifecycleHooks) {
		if h.OnCommit != nil {
			h.OnCommit(ctx, ev)
		}
	})
}

// exec runs a command for the current user.
func (t *turn) exec(node *domain.NodeDefinition, command string) (string, error) {
	if t.in.commands == nil {
		return "", &CommandError{NodeID: node.ID, Command: command, Err: ErrNoCommands}
	}
	next, err := t.in.commands.Execute(t.ctx, t.s.UserID, command)
	if err != nil {
		return "", &CommandError{NodeID: node.ID, Command: command, Err: err}
	}
	return next, nil
}

// ignore handles a reference to something the current screen does not offer.
func (t *turn) ignore(node *domain.NodeDefinition, err error, ref string) {
	t.in.logger.Warn("ignoring unknown reference",
		"user_id", t.s.UserID, "node_id", node.ID, "event", t.ev.Kind, "ref", ref, "err", err)
	t.kind = domain.InstructionNoop
}

// mismatch handles an event that does not apply to the node kind.
func (t *turn) mismatch(node *domain.NodeDefinition) {
	t.in.logger.Debug("event does not apply to node",
		"user_id", t.s.UserID, "node_id", node.ID, "kind", node.Kind, "event", t.ev.Kind)
	t.kind = domain.InstructionRetry
	if node.Kind == domain.KindFreeText {
		t.notices = append(t.notices, t.in.messages.TypeAnswer)
		return
	}
	t.notices = append(t.notices, t.in.messages.UseButtons)
}

// retry re-prompts the node with msg.
func (t *turn) retry(node *domain.NodeDefinition, msg string) {
	t.kind = domain.InstructionRetry
	if node.Field != "" && t.s.Profile.Has(node.Field) {
		msg += "\n" + fmt.Sprintf(t.in.messages.CurrentValue, t.in.display(t.s, node.Field))
	}
	t.notices = append(t.notices, msg)
}

func (t *turn) queue(fn func(context.Context, domain.LifecycleHooks)) {
	t.hooks = append(t.hooks, fn)
}

// flushHooks fires the queued hooks once the mutation has been accepted.
func (t *turn) flushHooks(ctx context.Context) {
	for _, fn := range t.hooks {
		fn(ctx, t.in.hooks)
	}
	t.hooks = nil
}
