package memory

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/rapport/pkg/domain"
)

// Loader implements ports.GraphLoader using an in-memory map.
type Loader struct {
	nodes map[string][]byte
}

// NewLoader creates a Loader from raw node records (YAML or JSON) keyed by node id.
func NewLoader(data map[string]string) *Loader {
	nodes := make(map[string][]byte, len(data))
	for k, v := range data {
		nodes[k] = []byte(v)
	}
	return &Loader{nodes: nodes}
}

// NewFromNodes creates a Loader from node definitions, serialising them for the compiler.
func NewFromNodes(nodes ...domain.NodeDefinition) (*Loader, error) {
	data := make(map[string][]byte, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
		if _, dup := data[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %s", n.ID)
		}
		raw, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal node %s: %w", n.ID, err)
		}
		data[n.ID] = raw
	}
	return &Loader{nodes: data}, nil
}

// GetNode retrieves the raw definition of a node by ID.
func (l *Loader) GetNode(id string) ([]byte, error) {
	content, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return content, nil
}

// ListNodes returns all node ids in lexical order.
func (l *Loader) ListNodes() ([]string, error) {
	keys := make([]string, 0, len(l.nodes))
	for k := range l.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
