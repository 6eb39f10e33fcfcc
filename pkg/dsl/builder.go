package dsl

import (
	"fmt"

	"github.com/aretw0/rapport/pkg/adapters/memory"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/graph"
)

// Builder manages the graph construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.NodeDefinition{
			ID:   id,
			Kind: domain.KindPrompt,
		},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Nodes returns the node definitions in the order they were added.
func (b *Builder) Nodes() []domain.NodeDefinition {
	nodes := make([]domain.NodeDefinition, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].Build())
	}
	return nodes
}

// Build compiles the graph into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	loader, err := memory.NewFromNodes(b.Nodes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// Graph loads the built nodes into a graph. The first added node is the entry
// unless opts say otherwise.
func (b *Builder) Graph(opts ...graph.Option) (*graph.Graph, error) {
	if len(b.order) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}
	loader, err := b.Build()
	if err != nil {
		return nil, err
	}
	return graph.Load(loader, append([]graph.Option{graph.WithEntry(b.order[0])}, opts...)...)
}
