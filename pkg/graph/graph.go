// Package graph holds the immutable dialogue graph and the queries the interpreter needs.
package graph

import (
	"fmt"
	"sort"

	"github.com/aretw0/rapport/internal/compiler"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/aretw0/rapport/pkg/profile"
)

// Graph is read-only after construction and shared by every dispatch.
type Graph struct {
	nodes  map[string]*domain.NodeDefinition
	order  []string
	entry  string
	home   string
	owners map[string]string
	dups   map[string][]string
	fields []profile.Field
}

// Option configures graph construction.
type Option func(*settings)

type settings struct {
	entry string
	home  string
}

// WithEntry sets the node new sessions start at.
func WithEntry(id string) Option {
	return func(s *settings) { s.entry = id }
}

// WithHome sets the node rendered while a session is idle.
func WithHome(id string) Option {
	return func(s *settings) { s.home = id }
}

// New builds a graph from node definitions. It rejects duplicate ids and a missing entry
// or home node; softer problems are reported by Validate.
func New(nodes []domain.NodeDefinition, opts ...Option) (*Graph, error) {
	cfg := settings{entry: "start"}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Graph{
		nodes:  make(map[string]*domain.NodeDefinition, len(nodes)),
		entry:  cfg.entry,
		home:   cfg.home,
		owners: make(map[string]string),
		dups:   make(map[string][]string),
	}
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node #%d has no id", i)
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %s", n.ID)
		}
		g.nodes[n.ID] = &n
		g.order = append(g.order, n.ID)
	}
	sort.Strings(g.order)

	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry node %q: %w", g.entry, domain.ErrUnknownNode)
	}
	if g.home != "" {
		if _, ok := g.nodes[g.home]; !ok {
			return nil, fmt.Errorf("home node %q: %w", g.home, domain.ErrUnknownNode)
		}
	}

	g.indexFields()
	return g, nil
}

// Load reads every node through loader, compiles it and builds the graph.
// Entry and home hints from a ports.GraphMeta loader apply unless overridden by opts.
func Load(loader ports.GraphLoader, opts ...Option) (*Graph, error) {
	ids, err := loader.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	parser := compiler.NewParser()
	nodes := make([]domain.NodeDefinition, 0, len(ids))
	for _, id := range ids {
		raw, err := loader.GetNode(id)
		if err != nil {
			return nil, fmt.Errorf("load node %s: %w", id, err)
		}
		node, err := parser.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("compile node %s: %w", id, err)
		}
		nodes = append(nodes, *node)
	}

	if meta, ok := loader.(ports.GraphMeta); ok {
		var hinted []Option
		if e := meta.EntryNode(); e != "" {
			hinted = append(hinted, WithEntry(e))
		}
		if h := meta.HomeNode(); h != "" {
			hinted = append(hinted, WithHome(h))
		}
		opts = append(hinted, opts...)
	}
	return New(nodes, opts...)
}

// indexFields records field owners in crawl order from the entry, then the rest by id.
func (g *Graph) indexFields() {
	visit := func(id string) {
		n := g.nodes[id]
		if n.Field == "" {
			return
		}
		if owner, ok := g.owners[n.Field]; ok {
			if owner != id {
				g.dups[n.Field] = append(g.dups[n.Field], id)
			}
			return
		}
		g.owners[n.Field] = id
		g.fields = append(g.fields, profile.Field{
			Name:     n.Field,
			Label:    n.Label,
			Required: n.Required,
			Multi:    n.Kind == domain.KindMultiChoice,
		})
	}

	reached := g.Reachable()
	for _, id := range reached {
		visit(id)
	}
	seen := make(map[string]bool, len(reached))
	for _, id := range reached {
		seen[id] = true
	}
	for _, id := range g.order {
		if !seen[id] {
			visit(id)
		}
	}
}

// Reachable lists node ids reachable from the entry in breadth-first order.
// Dangling targets are skipped.
func (g *Graph) Reachable() []string {
	visited := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	var out []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, t := range g.nodes[id].Targets() {
			if _, ok := g.nodes[t]; ok && !visited[t] {
				visited[t] = true
				queue = append(queue, t)
			}
		}
	}
	return out
}

// Resolve returns the node with id, or domain.ErrUnknownNode.
func (g *Graph) Resolve(id string) (*domain.NodeDefinition, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, domain.ErrUnknownNode)
	}
	return n, nil
}

// IsTerminal reports whether id has no successor: no Next and no goto or command option.
func (g *Graph) IsTerminal(id string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	if n.Next != "" {
		return false
	}
	for _, opt := range n.Options {
		if opt.Action.Kind == domain.ActionGoto || opt.Action.Kind == domain.ActionCommand {
			return false
		}
	}
	return n.Kind != domain.KindAction
}

// OwnerOf returns the node that collects field.
func (g *Graph) OwnerOf(field string) (*domain.NodeDefinition, error) {
	id, ok := g.owners[field]
	if !ok {
		return nil, fmt.Errorf("field %q: %w", field, domain.ErrUnknownField)
	}
	return g.nodes[id], nil
}

// Entry returns the entry node id.
func (g *Graph) Entry() string { return g.entry }

// Home returns the idle node id, which may be empty.
func (g *Graph) Home() string { return g.home }

// Fields returns the collected profile fields in flow order.
func (g *Graph) Fields() []profile.Field {
	return append([]profile.Field(nil), g.fields...)
}

// Projection builds the completeness projection over the graph's fields.
func (g *Graph) Projection() *profile.Projection {
	return profile.New(g.fields)
}

// Nodes returns every node id in lexical order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }
