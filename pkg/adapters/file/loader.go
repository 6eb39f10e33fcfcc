package file

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// GraphDocument is the single-file graph format.
type GraphDocument struct {
	Entry string           `yaml:"entry,omitempty"`
	Home  string           `yaml:"home,omitempty"`
	Nodes []map[string]any `yaml:"nodes"`
}

// Loader implements ports.GraphLoader over one YAML graph document.
// The whole file is read once; each node record is kept as raw YAML for the compiler.
type Loader struct {
	entry string
	home  string
	nodes map[string][]byte
}

// NewLoader reads and splits the graph document at path.
func NewLoader(path string) (*Loader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return ParseGraph(data)
}

// ParseGraph splits a graph document into per-node records.
func ParseGraph(data []byte) (*Loader, error) {
	var doc GraphDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}

	l := &Loader{
		entry: doc.Entry,
		home:  doc.Home,
		nodes: make(map[string][]byte, len(doc.Nodes)),
	}
	for i, n := range doc.Nodes {
		id, _ := n["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("node #%d has no id", i)
		}
		if _, dup := l.nodes[id]; dup {
			return nil, fmt.Errorf("duplicate node %s", id)
		}
		raw, err := yaml.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		l.nodes[id] = raw
	}
	return l, nil
}

// GetNode returns the raw record of node id.
func (l *Loader) GetNode(id string) ([]byte, error) {
	raw, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return raw, nil
}

// ListNodes returns node ids in lexical order.
func (l *Loader) ListNodes() ([]string, error) {
	ids := make([]string, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// EntryNode implements ports.GraphMeta.
func (l *Loader) EntryNode() string { return l.entry }

// HomeNode implements ports.GraphMeta.
func (l *Loader) HomeNode() string { return l.home }
