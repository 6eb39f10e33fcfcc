package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository of markdown/YAML/JSON documents to ports.GraphLoader.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initialises a read-only, strict Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number across formats; the graph is never written.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// GetNode retrieves a document and re-encodes it as a JSON node record for the compiler.
func (l *Loader) GetNode(id string) ([]byte, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data := buildRecord(doc.ID, doc.Data, doc.Content)

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node data: %w", err)
	}
	return bytes, nil
}

func buildRecord(docID string, meta NodeMetadata, content string) map[string]any {
	data := make(map[string]any)

	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	data["id"] = trimExtension(rawID)

	kind := meta.Kind
	if kind == "" {
		kind = meta.Type
	}
	if kind != "" {
		data["kind"] = kind
	}

	prompt := meta.Prompt
	if prompt == "" {
		prompt = strings.TrimSpace(content)
	}
	data["prompt"] = prompt

	next := meta.Next
	if next == "" {
		next = meta.To
	}
	setIf(data, "next", next)
	setIf(data, "field", meta.Field)
	setIf(data, "label", meta.Label)
	setIf(data, "command", meta.Command)
	setIf(data, "catalog", meta.Catalog)
	if meta.Required {
		data["required"] = true
	}
	if meta.Skippable {
		data["skippable"] = true
	}
	if len(meta.Validation) > 0 {
		data["validation"] = meta.Validation
	}

	if len(meta.Options) > 0 {
		options := make([]map[string]any, 0, len(meta.Options))
		for _, o := range meta.Options {
			options = append(options, buildOption(o))
		}
		data["options"] = options
	}
	return data
}

func buildOption(o LoaderOption) map[string]any {
	opt := make(map[string]any)
	setIf(opt, "id", o.ID)
	setIf(opt, "text", o.Text)
	setIf(opt, "value", o.Value)
	setIf(opt, "target", o.Target)

	goTo := o.Goto
	if goTo == "" {
		goTo = o.JumpTo
	}
	setIf(opt, "goto", goTo)
	setIf(opt, "command", o.Command)
	setIf(opt, "url", o.URL)

	if o.Action != nil {
		opt["action"] = o.Action
	}
	return opt
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// ListNodes lists all nodes in the repository.
func (l *Loader) ListNodes() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
