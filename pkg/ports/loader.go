package ports

// GraphLoader defines how node definitions are retrieved.
// This allows the storage layer (YAML file, Loam, Memory) to be decoupled from the compiler.
type GraphLoader interface {
	// GetNode retrieves the raw definition of a node by ID.
	// It returns the raw bytes (which the compiler will parse) or an error.
	GetNode(id string) ([]byte, error)

	// ListNodes returns the IDs of all nodes available in the graph.
	ListNodes() ([]string, error)
}

// GraphMeta is implemented by loaders whose source declares the entry and home nodes.
// Explicit configuration takes precedence over these hints.
type GraphMeta interface {
	EntryNode() string
	HomeNode() string
}
